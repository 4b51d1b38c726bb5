package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blackwell-systems/siteinsight/internal/logging"
	"github.com/blackwell-systems/siteinsight/internal/tools"
)

// callRequest is the body of POST /call_tool and POST /tools/:name.
type callRequest struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":            Name,
		"version":         s.version,
		"description":     Description,
		"available_tools": s.registry.Names(),
	})
}

func (s *Server) handleTools(c *gin.Context) {
	c.JSON(http.StatusOK, s.registry.Describe())
}

func (s *Server) handleNamedTool(c *gin.Context) {
	name := c.Param("name")
	if _, ok := s.registry.Lookup(name); !ok {
		s.metrics.ObserveTool("unknown_tool", "unknown")
		c.JSON(http.StatusNotFound, gin.H{"detail": "Tool '" + name + "' not found"})
		return
	}
	req, ok := bindCall(c)
	if !ok {
		return
	}
	s.execute(c, name, req.Parameters)
}

func (s *Server) handleCallTool(c *gin.Context) {
	req, ok := bindCall(c)
	if !ok {
		return
	}
	if req.ToolName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tool_name is required"})
		return
	}
	s.execute(c, req.ToolName, req.Parameters)
}

// bindCall decodes an optional JSON body. An empty body means no parameters.
func bindCall(c *gin.Context) (callRequest, bool) {
	var req callRequest
	if c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return req, false
	}
	return req, true
}

func (s *Server) execute(c *gin.Context, name string, params map[string]any) {
	result, err := s.registry.Call(name, params)
	switch {
	case err == nil:
		s.metrics.ObserveTool(name, "ok")
		c.JSON(http.StatusOK, result)
	case errors.Is(err, tools.ErrUnknownTool):
		s.metrics.ObserveTool("unknown_tool", "unknown")
		c.JSON(http.StatusOK, gin.H{"error": "Unknown tool: " + name})
	default:
		s.metrics.ObserveTool(name, "error")
		s.logger.WithFields(logging.Fields{"tool": name}).WithError(err).Warn("tool execution failed")
		status := http.StatusInternalServerError
		if errors.Is(err, tools.ErrInvalidParams) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": "Tool execution failed: " + err.Error()})
	}
}
