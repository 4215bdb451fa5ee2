package httpd

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	cmdcommon "github.com/jonesrussell/goinsight/cmd/common"
	"github.com/jonesrussell/goinsight/internal/domain"
	"github.com/jonesrussell/goinsight/internal/sources"
	"github.com/jonesrussell/goinsight/internal/store"
)

// sourceResponse is the API shape of a catalog entry.
type sourceResponse struct {
	Slug            string     `json:"slug"`
	Name            string     `json:"name"`
	SeedURLs        []string   `json:"seed_urls"`
	Topics          []string   `json:"topics"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at,omitempty"`
}

// newRouter builds the read-only API routes.
func newRouter(deps *cmdcommon.Deps, st *store.Store, registry *sources.Registry) *gin.Engine {
	if deps.Config.App.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	v1.GET("/sources", listSources(registry))
	v1.GET("/documents", listDocuments(st))
	v1.GET("/topics", listTopics(st))
	v1.GET("/topics/:id", getTopic(st))
	v1.GET("/graphs/:slug", getGraph(st))
	v1.GET("/status", listStatuses(st))
	return router
}

func listSources(registry *sources.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		catalog := registry.List()
		out := make([]sourceResponse, 0, len(catalog))
		for _, src := range catalog {
			out = append(out, sourceResponse{
				Slug:            src.Slug,
				Name:            src.Name,
				SeedURLs:        src.SeedURLs,
				Topics:          src.Tags(),
				LastRefreshedAt: src.LastRefreshedAt,
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

// listDocuments returns every document, optionally filtered by ?source=
// or ?topic=.
func listDocuments(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		docs, err := st.Documents()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		source := c.Query("source")
		topic := c.Query("topic")
		out := make([]*domain.Document, 0, len(docs))
		for _, doc := range docs {
			if source != "" && !doc.HasSource(source) {
				continue
			}
			if topic != "" && !doc.HasTopic(topic) {
				continue
			}
			out = append(out, doc)
		}
		c.JSON(http.StatusOK, out)
	}
}

func listTopics(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		aggregates, err := st.TopicAggregates()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, aggregates)
	}
}

// getTopic resolves one topic's aggregate into full documents, in
// aggregate order.
func getTopic(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		agg, err := st.TopicAggregate(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if agg == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "topic not found"})
			return
		}

		docs := make([]*domain.Document, 0, len(agg.Fingerprints))
		for _, fp := range agg.Fingerprints {
			doc, docErr := st.Document(fp)
			if docErr != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": docErr.Error()})
				return
			}
			if doc != nil {
				docs = append(docs, doc)
			}
		}
		c.JSON(http.StatusOK, gin.H{"topic_id": agg.TopicID, "documents": docs})
	}
}

func getGraph(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := st.Graph(c.Param("slug"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if snap == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "graph not found"})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

func listStatuses(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		statuses, err := st.Statuses()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, statuses)
	}
}
