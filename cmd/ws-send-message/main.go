// Command ws-send-message pushes ontology change events from EventBridge to
// every connected editor.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"ontology-backend/infrastructure/config"
	"ontology-backend/infrastructure/messaging/websocket"
	"ontology-backend/pkg/observability"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.IsLambda = true
	logger, _, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatalf("Unable to load AWS config: %v", err)
	}
	if cfg.EnableXRay {
		observability.InstrumentAWS(&awsCfg)
	}

	store := websocket.NewConnectionStore(dynamodb.NewFromConfig(awsCfg), cfg.ConnectionsTable, logger)
	clients := websocket.NewClientFactory(awsCfg, cfg.WebSocketEndpoint)
	lambda.Start(websocket.NewBroadcaster(store, clients, logger).HandleEvent)
}
