// Command ws-connect admits websocket connections from signed-in editors.
package main

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"ontology-backend/infrastructure/config"
	"ontology-backend/infrastructure/messaging/websocket"
)

const connectionTTL = 2 * time.Hour

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.IsLambda = true
	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		log.Fatal("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY must be set")
	}
	logger, _, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatalf("Unable to load AWS config: %v", err)
	}
	verifier, err := websocket.NewSupabaseVerifier(cfg.SupabaseURL, cfg.SupabaseKey)
	if err != nil {
		log.Fatalf("Unable to create Supabase client: %v", err)
	}

	store := websocket.NewConnectionStore(dynamodb.NewFromConfig(awsCfg), cfg.ConnectionsTable, logger)
	lambda.Start(websocket.NewConnectHandler(verifier, store, connectionTTL, logger).Connect)
}
