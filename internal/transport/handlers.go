package transport

import (
	"github.com/ds124wfegd/mirai-frame/internal/service"
)

type FrameHandler struct {
	service service.FrameService
}

func NewFrameHandler(service service.FrameService) *FrameHandler {
	return &FrameHandler{service: service}
}
