// Command seed prepares a development environment: it creates the session
// indexes in MongoDB and prints player tokens for local clients.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"bingohall/internal/config"
	"bingohall/internal/model"
	"bingohall/internal/repository"
	"bingohall/internal/service"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	players := flag.String("players", "alice,bob", "comma separated display names to mint tokens for")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime, 0 for none")
	skipIndexes := flag.Bool("skip-indexes", false, "do not touch MongoDB")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if !*skipIndexes {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer client.Disconnect(ctx)

		repo := repository.NewMongoSessionRepo(client.Database(cfg.MongoDB))
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Failed to create indexes: %v", err)
		}
		fmt.Printf("Indexes ready in %s\n", cfg.MongoDB)
	}

	auth := service.NewAuthService(cfg.JWTSecret)
	for _, name := range strings.Split(*players, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		identity := model.Identity{ID: uuid.NewString(), Name: name}
		token, err := auth.GenerateUserToken(identity, *ttl)
		if err != nil {
			log.Fatalf("Failed to sign token for %s: %v", name, err)
		}
		fmt.Printf("%s\t%s\t%s\n", name, identity.ID, token)
	}
}
