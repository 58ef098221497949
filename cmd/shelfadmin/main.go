package main

import (
	"context"
	"log"
	"time"

	"shelfadmin/external/github"
	"shelfadmin/internal/auth"
	"shelfadmin/internal/config"
	"shelfadmin/internal/core"
	"shelfadmin/internal/database"
	"shelfadmin/internal/routes"
	"shelfadmin/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Panicf("config.FromEnv(). %+v", err)
	}

	homeDir, err := utils.GetShelfadminHomeDirectory()
	if err != nil {
		log.Panicf("utils.GetShelfadminHomeDirectory(). %+v", err)
	}

	log.Println("Current home dir: ", homeDir)

	sqlite, err := database.DatabaseSetup(ctx, homeDir)
	if err != nil {
		log.Panicf("database.DatabaseSetup(ctx, homeDir). %+v", err)
	}
	defer sqlite.Db.Close()

	r := gin.Default()
	r.HandleMethodNotAllowed = true

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "*"},
		ExposeHeaders:    []string{"Content-Length", "*"},
		AllowCredentials: true,
	}))

	codec := auth.NewCodec(cfg.TokenSecret, cfg.TokenMaxAge)
	store := github.NewClient(cfg.GithubToken, cfg.RepoOwner, cfg.RepoName)
	server := core.NewAdminServer(cfg, sqlite, store)

	routes.LoginRoutes(r, cfg, codec)
	routes.UploadRoutes(r, server, codec)
	routes.CatalogRoutes(r, server, codec)

	// sweep the orphan log so partial commits stay visible
	go func() {
		for {
			orphans, err := sqlite.GetUnresolvedOrphans()
			if err != nil {
				log.Printf("sqlite.GetUnresolvedOrphans() %+v", err)
			} else if len(orphans) > 0 {
				log.Printf("%d orphaned pdf(s) awaiting reconciliation", len(orphans))
				for _, o := range orphans {
					log.Printf("orphan %v: %v (%v)", o.Id, o.PdfPath, o.Reason)
				}
			}

			time.Sleep(10 * time.Minute)
		}
	}()

	log.Println("shelfadmin started on ", cfg.ListenAddr)
	r.Run(cfg.ListenAddr)
}
