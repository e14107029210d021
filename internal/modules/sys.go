package modules

import (
	"github.com/google/uuid"

	"github.com/funvibe/logex/internal/config"
	"github.com/funvibe/logex/internal/evaluator"
	"github.com/funvibe/logex/internal/value"
)

func sysPackage() *Package {
	return &Package{
		Name: "sys",
		Functions: []*evaluator.Function{
			{Name: "uuid", MinArgs: 0, MaxArgs: 0, Impl: sysUUID, Doc: "random version 4 UUID string"},
			{Name: "version", MinArgs: 0, MaxArgs: 0, Impl: sysVersion, Doc: "interpreter version string"},
		},
	}
}

func sysUUID(_ []value.Value, _ value.Limits) (value.Value, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return value.Value{}, err
	}
	return value.NewString(id.String()), nil
}

func sysVersion(_ []value.Value, _ value.Limits) (value.Value, error) {
	return value.NewString(config.Version), nil
}
