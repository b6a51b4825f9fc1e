package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"phoenix/internal/player"
	"phoenix/internal/progress"
	"phoenix/internal/scenario"
)

type scenarioSummary struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	SceneCount  int    `json:"scene_count"`
	OptionCount int    `json:"option_count"`
}

type scenarioDetail struct {
	Code   string           `json:"code"`
	Name   string           `json:"name"`
	Scenes []scenario.Scene `json:"scenes"`
}

type runResponse struct {
	Code    string      `json:"code"`
	Session string      `json:"session"`
	Step    player.Step `json:"step"`
	View    player.View `json:"view"`
}

type progressResponse struct {
	Session      string `json:"session"`
	EXP          int    `json:"exp"`
	Level        int    `json:"level"`
	TotalCorrect int    `json:"total_correct"`
	Needed       int    `json:"needed"`
	Percent      int    `json:"percent"`
}

type startRequest struct {
	Code string `json:"code" binding:"required"`
}

type selectRequest struct {
	AnswerID string `json:"answerId" binding:"required"`
}

func (s *Server) listScenarios(c *gin.Context) {
	items, err := s.catalog.ListScenarios(c.Request.Context())
	if err != nil {
		s.handleError(c, err)
		return
	}
	out := make([]scenarioSummary, 0, len(items))
	for _, item := range items {
		out = append(out, scenarioSummary{
			Code:        item.Code,
			Name:        item.Name,
			SceneCount:  item.SceneCount,
			OptionCount: item.OptionCount,
		})
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": out})
}

func (s *Server) getScenario(c *gin.Context) {
	sc, err := s.catalog.GetScenario(c.Request.Context(), c.Param("code"))
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, scenarioDetail{Code: sc.Code, Name: sc.Name, Scenes: sc.Scenes})
}

func (s *Server) startRun(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Message: "code is required"})
		return
	}

	key := sessionKey(c)
	if key == "" {
		key = newSessionKey()
	}
	run, err := s.runs.Start(c.Request.Context(), req.Code, key)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.Header(SessionHeader, run.Key())
	c.JSON(http.StatusCreated, runResponse{
		Code:    run.Code(),
		Session: run.Key(),
		Step:    player.Step{Kind: player.StepNone},
		View:    run.View(),
	})
}

func (s *Server) getRun(c *gin.Context) {
	run, err := s.runs.Get(sessionKey(c))
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, runResponse{Code: run.Code(), Session: run.Key(), View: run.View()})
}

func (s *Server) endRun(c *gin.Context) {
	if !s.runs.End(sessionKey(c)) {
		c.AbortWithStatusJSON(http.StatusNotFound, apiError{Message: "no active run"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) selectChoice(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Message: "answerId is required"})
		return
	}
	ctx := c.Request.Context()
	s.drive(c, func(e *player.Engine) (player.Step, error) {
		return e.Select(ctx, req.AnswerID)
	})
}

func (s *Server) next(c *gin.Context) {
	ctx := c.Request.Context()
	s.drive(c, func(e *player.Engine) (player.Step, error) {
		return e.Next(ctx)
	})
}

func (s *Server) back(c *gin.Context) {
	ctx := c.Request.Context()
	s.drive(c, func(e *player.Engine) (player.Step, error) {
		step, _ := e.Back(ctx)
		return step, nil
	})
}

func (s *Server) retry(c *gin.Context) {
	ctx := c.Request.Context()
	s.drive(c, func(e *player.Engine) (player.Step, error) {
		return e.Retry(ctx), nil
	})
}

func (s *Server) drive(c *gin.Context, fn func(e *player.Engine) (player.Step, error)) {
	run, err := s.runs.Get(sessionKey(c))
	if err != nil {
		s.handleError(c, err)
		return
	}
	step, view, err := run.Do(fn)
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, runResponse{Code: run.Code(), Session: run.Key(), Step: step, View: view})
}

func (s *Server) getProgress(c *gin.Context) {
	key := sessionKey(c)
	handle := s.runs.Session(key)

	p := progress.New()
	if run, err := s.runs.Get(key); err == nil {
		p = run.View().Progress
	} else if snap, ok := handle.Load(c.Request.Context()); ok {
		p = snap.Progress()
	}
	c.JSON(http.StatusOK, progressResponse{
		Session:      handle.Key(),
		EXP:          p.EXP,
		Level:        p.Level,
		TotalCorrect: p.TotalCorrect,
		Needed:       progress.EXPForNextLevel(p.Level),
		Percent:      progress.Percent(float64(p.EXP), p.Level),
	})
}

// resetProgress clears persisted progress and ends the active run, so the
// next start begins at level one.
func (s *Server) resetProgress(c *gin.Context) {
	key := sessionKey(c)
	s.runs.End(key)
	if err := s.runs.Session(key).Reset(c.Request.Context()); err != nil {
		s.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
