// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jllopis/scriptcrew/pkg/core"
	"github.com/jllopis/scriptcrew/pkg/errors"
	"github.com/jllopis/scriptcrew/pkg/jobs"
)

// Request fields are pointers so that an absent field fails binding while an
// empty string is accepted.
type generateRequest struct {
	Niche    *string `json:"niche" binding:"required"`
	Keywords *string `json:"keywords" binding:"required"`
	Audience *string `json:"audience" binding:"required"`
}

type refineRequest struct {
	Script         *string        `json:"script" binding:"required"`
	Feedback       *string        `json:"feedback" binding:"required"`
	OriginalInputs map[string]any `json:"original_inputs" binding:"required"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}
	out, err := s.service.Generate(c.Request.Context(), jobs.Brief{
		Niche:    *req.Niche,
		Keywords: *req.Keywords,
		Audience: *req.Audience,
	})
	if err != nil {
		s.fail(c, "generate-script", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleRefine(c *gin.Context) {
	var req refineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}
	out, err := s.service.Refine(c.Request.Context(), *req.Script, *req.Feedback, core.InputsFromJSON(req.OriginalInputs))
	if err != nil {
		s.fail(c, "refine-script", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// fail logs err and answers with its message as detail. Invalid requests
// get 400; every other failure is a 500.
func (s *Server) fail(c *gin.Context, route string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, errors.CodeInvalidInput) {
		status = http.StatusBadRequest
	}
	s.logger.ErrorContext(c.Request.Context(), "request failed",
		slog.String("route", route),
		slog.String("error_code", string(errors.CodeOf(err))),
		slog.String("error", err.Error()),
	)
	c.JSON(status, errorResponse{Detail: err.Error()})
}
