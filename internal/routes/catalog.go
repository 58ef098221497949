package routes

import (
	"log"

	"shelfadmin/internal/auth"
	"shelfadmin/internal/catalog"
	"shelfadmin/internal/core"
	"shelfadmin/internal/database"

	"github.com/gin-gonic/gin"
)

// CatalogRoutes serves the data the public listing page consumes plus
// the operator's reconciliation view.
func CatalogRoutes(r *gin.Engine, server *core.AdminServer, codec auth.Codec) {
	r.GET("/catalog", func(c *gin.Context) {
		file, err := server.Store.GetFile(c.Request.Context(), catalog.Path, server.Cfg.Branch)
		if err != nil {
			log.Printf("server.Store.GetFile(catalog.Path) %+v", err)
			c.JSON(500, ErrorResponse{Error: "Failed to fetch catalog"})
			return
		}

		c.JSON(200, catalog.Decode(file.Content))
	})

	r.GET("/admin/orphans", AdminTokenMiddleware(codec), func(c *gin.Context) {
		orphans, err := server.DB.GetUnresolvedOrphans()
		if err != nil {
			log.Printf("server.DB.GetUnresolvedOrphans() %+v", err)
			c.JSON(500, ErrorResponse{Error: "Failed to list orphans"})
			return
		}
		if orphans == nil {
			orphans = []database.Orphan{}
		}

		c.JSON(200, orphans)
	})
}
