package service

import (
	"context"
	"strings"

	"cobrofacil/internal/dto"
	"cobrofacil/internal/model"
	"cobrofacil/internal/repository"

	"github.com/go-playground/validator/v10"
)

// MaxDestinatarios is the size limit of a register's distribution list.
const MaxDestinatarios = 5

type DistribucionService interface {
	Obtener(ctx context.Context, caja string) (*dto.DistribucionResponse, error)
	Actualizar(ctx context.Context, actor Actor, caja string, req dto.DistribucionRequest) (*dto.DistribucionResponse, error)
}

type distribucionService struct {
	repo     repository.DistribucionRepository
	validate *validator.Validate
}

func NewDistribucionService(repo repository.DistribucionRepository) DistribucionService {
	return &distribucionService{repo: repo, validate: validator.New()}
}

func (s *distribucionService) Obtener(ctx context.Context, caja string) (*dto.DistribucionResponse, error) {
	d, err := s.repo.Get(ctx, caja)
	if err != nil {
		return nil, err
	}
	emails := d.Emails
	if emails == nil {
		emails = []string{}
	}
	return &dto.DistribucionResponse{Caja: caja, Emails: emails}, nil
}

// Actualizar replaces the whole list. Addresses are normalized to lower case
// and deduplicated before the size limit is checked.
func (s *distribucionService) Actualizar(ctx context.Context, actor Actor, caja string, req dto.DistribucionRequest) (*dto.DistribucionResponse, error) {
	if actor.Rol != RolAdministrador {
		return nil, ErrProhibido
	}
	caja = strings.TrimSpace(caja)
	if caja == "" {
		return nil, invalido("caja", "requerida")
	}

	vistos := make(map[string]bool, len(req.Emails))
	emails := make([]string, 0, len(req.Emails))
	for _, e := range req.Emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if err := s.validate.Var(e, "required,email"); err != nil {
			return nil, invalido("emails", "dirección inválida: "+e)
		}
		if vistos[e] {
			continue
		}
		vistos[e] = true
		emails = append(emails, e)
	}
	if len(emails) > MaxDestinatarios {
		return nil, invalido("emails", "máximo 5 destinatarios")
	}

	actualizadoPor := actor.ID
	d := &model.DistribucionReporte{Caja: caja, Emails: emails, ActualizadoPor: &actualizadoPor}
	if err := s.repo.Upsert(ctx, d); err != nil {
		return nil, err
	}
	return &dto.DistribucionResponse{Caja: caja, Emails: emails}, nil
}
