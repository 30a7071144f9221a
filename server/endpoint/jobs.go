package endpoint

import (
	"context"

	"github.com/gin-gonic/gin"
)

// JobCounter counts queued jobs.
type JobCounter interface {
	CountJobs(ctx context.Context) (int64, error)
}

// Jobs serves GET /jobs with the number of pending jobs.
func Jobs(jobs JobCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := jobs.CountJobs(c.Request.Context())
		if err != nil {
			RespondWithError(c, err)
			return
		}
		RespondOK(c, gin.H{"pending": n})
	}
}
