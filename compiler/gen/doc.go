// Package gen generates compile-time field tables for lightdao entities.
//
// For every entity, Generate writes "<entity>_fields.go" holding a
// []field.Descriptor table, a *schema.Entity value and column constants, plus
// an "entities.go" index of all entities. Programs that embed the generated
// package resolve columns without reflecting over structs at run time.
//
//	cfg, _ := gen.NewConfig("internal/models", gen.WithWorkers(4))
//	err := gen.Generate(ctx, cfg, entities)
package gen
