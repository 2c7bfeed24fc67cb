package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"registry-backend/internal/shared/server/respond"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	DB      Pinger
	Timeout time.Duration
	now     func() time.Time
}

// NewService constructs a new health service. db may be nil when records
// are held in memory.
func NewService(db Pinger) *Service {
	return &Service{DB: db, Timeout: 2 * time.Second, now: time.Now}
}

// Report is the /health payload.
type Report struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
}

// Status reports liveness and database reachability.
func (s *Service) Status(ctx context.Context) Report {
	r := Report{Status: "OK", Timestamp: s.now().UTC(), Database: "memory"}
	if s.DB == nil {
		return r
	}
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		r.Status = "DEGRADED"
		r.Database = "unreachable"
		return r
	}
	r.Database = "connected"
	return r
}

// Handle serves the report. A degraded database answers 503 so load
// balancers stop routing to the instance.
func (s *Service) Handle(c *gin.Context) {
	r := s.Status(c.Request.Context())
	status := http.StatusOK
	if r.Status != "OK" {
		status = http.StatusServiceUnavailable
	}
	respond.JSON(c, status, r)
}
