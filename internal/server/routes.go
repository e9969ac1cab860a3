package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Cycle triggers
	mux.HandleFunc("/api/scan/trigger", s.app.ScanHandler.TriggerScanHandler)   // POST - run a scan cycle
	mux.HandleFunc("/api/retry/trigger", s.app.ScanHandler.TriggerRetryHandler) // POST - run a retry cycle

	// API routes - Pending queue
	mux.HandleFunc("/api/queue/stats", s.app.QueueHandler.StatsHandler) // GET - queue statistics
	mux.HandleFunc("/api/queue", s.app.QueueHandler.ListHandler)        // GET - queued calls

	// API routes - Notifications
	mux.HandleFunc("/api/notify/test", s.app.NotifyHandler.TestHandler) // POST - send test message

	// API routes - System
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/shutdown", s.ShutdownHandler) // Graceful shutdown endpoint (dev mode)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
