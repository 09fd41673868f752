package controller

import (
	"github.com/greengate/greengate/internal/service/validation"
)

type Controller struct {
	service *validation.Service
}

func NewController(service *validation.Service) *Controller {
	return &Controller{service: service}
}
