// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jllopis/scriptcrew/pkg/config"
	"github.com/jllopis/scriptcrew/pkg/core"
	"github.com/jllopis/scriptcrew/pkg/errors"
	"github.com/jllopis/scriptcrew/pkg/jobs"
)

type fakeService struct {
	generateCalls int
	refineCalls   int
	gotBrief      jobs.Brief
	gotScript     string
	gotFeedback   string
	gotOriginal   core.Inputs
	err           error
}

func (f *fakeService) Generate(_ context.Context, brief jobs.Brief) (jobs.GenerateResult, error) {
	f.generateCalls++
	f.gotBrief = brief
	if f.err != nil {
		return jobs.GenerateResult{}, f.err
	}
	return jobs.GenerateResult{Script: "SCRIPT", ArtDirection: "ART"}, nil
}

func (f *fakeService) Refine(_ context.Context, script, feedback string, original core.Inputs) (jobs.RefineResult, error) {
	f.refineCalls++
	f.gotScript, f.gotFeedback, f.gotOriginal = script, feedback, original
	if f.err != nil {
		return jobs.RefineResult{}, f.err
	}
	return jobs.RefineResult{Script: "REFINED"}, nil
}

func newTestServer(svc Service, opts ...Option) *Server {
	gin.SetMode(gin.TestMode)
	return New(svc, config.ServerConfig{Addr: ":0", CORSOrigins: []string{"*"}}, opts...)
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	svc := &fakeService{}
	rec, out := do(t, newTestServer(svc), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "healthy"}, out)
	assert.Zero(t, svc.generateCalls+svc.refineCalls)
}

func TestGenerateScript(t *testing.T) {
	svc := &fakeService{}
	rec, out := do(t, newTestServer(svc), http.MethodPost, "/generate-script",
		`{"niche":"coffee","keywords":"organic, fair-trade","audience":"young professionals"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SCRIPT", out["script"])
	assert.Equal(t, "ART", out["art_direction"])
	assert.Equal(t, jobs.Brief{Niche: "coffee", Keywords: "organic, fair-trade", Audience: "young professionals"}, svc.gotBrief)
}

func TestGenerateScriptBadRequest(t *testing.T) {
	svc := &fakeService{}
	s := newTestServer(svc)

	rec, out := do(t, s, http.MethodPost, "/generate-script", `{"niche":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, out["detail"])

	rec, _ = do(t, s, http.MethodPost, "/generate-script", `{"niche":"coffee"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.generateCalls)
}

func TestGenerateScriptAcceptsEmptyStrings(t *testing.T) {
	svc := &fakeService{}
	rec, _ := do(t, newTestServer(svc), http.MethodPost, "/generate-script",
		`{"niche":"coffee","keywords":"","audience":""}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.generateCalls)
	assert.Equal(t, jobs.Brief{Niche: "coffee"}, svc.gotBrief)
}

func TestGenerateScriptFailureIs500(t *testing.T) {
	cause := errors.GenerationError("generate_script", "script_generator", stderrors.New("model offline"))
	svc := &fakeService{err: cause}
	rec, out := do(t, newTestServer(svc), http.MethodPost, "/generate-script",
		`{"niche":"coffee","keywords":"organic","audience":"students"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, cause.Error(), out["detail"])
}

func TestGenerateScriptInvalidInputIs400(t *testing.T) {
	svc := &fakeService{err: errors.InvalidInputError("niche is required")}
	rec, out := do(t, newTestServer(svc), http.MethodPost, "/generate-script",
		`{"niche":" ","keywords":"organic","audience":"students"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, out["detail"], "niche is required")
}

func TestRefineScript(t *testing.T) {
	svc := &fakeService{}
	rec, out := do(t, newTestServer(svc), http.MethodPost, "/refine-script",
		`{"script":"Buy now!","feedback":"make it warmer","original_inputs":{"niche":"coffee","keywords":"organic","audience":"young professionals","year":2026,"organic":true,"brand":{"name":"Bean"}}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"script": "REFINED"}, out)
	assert.Equal(t, "Buy now!", svc.gotScript)
	assert.Equal(t, "make it warmer", svc.gotFeedback)
	assert.Equal(t, "coffee", svc.gotOriginal["niche"])
	assert.Equal(t, "2026", svc.gotOriginal["year"])
	assert.Equal(t, "true", svc.gotOriginal["organic"])
	assert.Equal(t, `{"name":"Bean"}`, svc.gotOriginal["brand"])
}

func TestRefineScriptRequiresFields(t *testing.T) {
	svc := &fakeService{}
	s := newTestServer(svc)

	for _, body := range []string{
		`{"feedback":"warmer","original_inputs":{}}`,
		`{"script":"Buy now!","original_inputs":{}}`,
		`{"script":"Buy now!","feedback":"warmer"}`,
	} {
		rec, out := do(t, s, http.MethodPost, "/refine-script", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.NotEmpty(t, out["detail"], body)
	}
	assert.Zero(t, svc.refineCalls)

	rec, _ := do(t, s, http.MethodPost, "/refine-script", `{"script":"","feedback":"","original_inputs":{}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.refineCalls)
}

func TestRefineScriptFailureIs500(t *testing.T) {
	svc := &fakeService{err: errors.MissingInputError("refine_script", "niche", []string{"niche"})}
	rec, out := do(t, newTestServer(svc), http.MethodPost, "/refine-script",
		`{"script":"Buy now!","feedback":"warmer","original_inputs":{}}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, out["detail"], "niche")
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/generate-script", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	newTestServer(&fakeService{}).Handler().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("scriptcrew_runs_total 1\n"))
	})
	s := newTestServer(&fakeService{}, WithMetricsHandler(metrics))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "scriptcrew_runs_total")

	rec = httptest.NewRecorder()
	newTestServer(&fakeService{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
