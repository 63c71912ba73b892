package api

import (
	_ "embed"
	"net/http"

	"go.uber.org/zap"
)

//go:embed openapi.json
var openAPIDocument []byte

const docsHTML = `<!DOCTYPE html>
<html>
<head>
  <title>wpscope API</title>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body>
  <redoc spec-url="/openapi.json"></redoc>
  <script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>`

func (s *Server) docsPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(docsHTML)); err != nil {
		s.logger.Error("write docs page failed", zap.Error(err))
	}
}

func (s *Server) openAPISchema(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(openAPIDocument); err != nil {
		s.logger.Error("write openapi schema failed", zap.Error(err))
	}
}
