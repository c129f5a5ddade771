package handler

import (
	"errors"
	"net/http"
	"reflect"

	"cobrofacil/internal/apierror"
	"cobrofacil/internal/middleware"
	"cobrofacil/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// actorFromContext builds the service actor from the validated JWT claims.
func actorFromContext(c *gin.Context) (service.Actor, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
		return service.Actor{}, false
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Token invalido: user_id"))
		return service.Actor{}, false
	}
	return service.Actor{ID: id, Rol: claims.Rol}, true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(name+" invalido"))
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps domain errors to HTTP statuses. Anything unknown is
// logged and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	var (
		conflicto *service.ConflictoError
		tope      *service.TopeDiarioError
		externo   *service.EstadoExternoPendienteError
		invalido  *service.ValidacionError
	)
	switch {
	case errors.As(err, &invalido):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{invalido.Campo: invalido.Motivo}))
	case errors.As(err, &conflicto):
		body := apierror.WithCode("turno_abierto", err.Error())
		if conflicto.Turno != nil {
			body.Turno = gin.H{
				"id":          conflicto.Turno.ID.String(),
				"etiqueta":    conflicto.Turno.Etiqueta,
				"abierto_por": conflicto.Turno.AbiertoPor.String(),
				"abierto_en":  conflicto.Turno.AbiertoEn,
			}
		}
		c.JSON(http.StatusConflict, body)
	case errors.As(err, &tope):
		body := apierror.WithCode("tope_diario", err.Error())
		body.AbiertosHoy = &tope.Abiertos
		body.Maximo = &tope.Maximo
		c.JSON(http.StatusConflict, body)
	case errors.As(err, &externo):
		body := apierror.WithCode("mesas_pendientes", err.Error())
		if externo.Causa != nil {
			body.Code = "estado_externo_desconocido"
			body.Detail = "estado externo desconocido: no se pudo verificar el estado de las mesas"
		} else {
			body.Mesas = externo.Mesas
		}
		c.JSON(http.StatusConflict, body)
	case errors.Is(err, service.ErrSinTurnoAbierto):
		c.JSON(http.StatusConflict, apierror.WithCode("sin_turno_abierto", err.Error()))
	case errors.Is(err, service.ErrNoEncontrado):
		c.JSON(http.StatusNotFound, apierror.WithCode("no_encontrado", err.Error()))
	case errors.Is(err, service.ErrAutorizacionRequerida):
		c.JSON(http.StatusForbidden, apierror.WithCode("autorizacion_requerida", err.Error()))
	case errors.Is(err, service.ErrProhibido):
		c.JSON(http.StatusForbidden, apierror.WithCode("prohibido", err.Error()))
	case errors.Is(err, service.ErrValidacion):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	default:
		log.Error().Err(err).Str("request_id", c.GetString(middleware.RequestIDKey)).Str("path", c.FullPath()).Msg("unexpected error")
		c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
	}
}
