package container

import (
	app "leaf-health-bot/internal/application"
	"leaf-health-bot/internal/domain/port"
)

type Container struct {
	UserService      *app.UserService
	DiagnosisService *app.DiagnosisService
}

func New(userRepo port.UserRepository, detector port.SymptomDetector, describer port.DiagnosisDescriber, store port.DiagnosisStore, opts app.DiagnosisOptions) *Container {
	userService := app.NewUserService(userRepo)
	diagnosisService := app.NewDiagnosisService(userService, detector, describer, store, opts)

	return &Container{
		UserService:      userService,
		DiagnosisService: diagnosisService,
	}
}
