// Command ws-disconnect forgets closed websocket connections.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"ontology-backend/infrastructure/config"
	"ontology-backend/infrastructure/messaging/websocket"
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

	store := websocket.NewConnectionStore(dynamodb.NewFromConfig(awsCfg), cfg.ConnectionsTable, logger)
	lambda.Start(websocket.NewConnectHandler(nil, store, 0, logger).Disconnect)
}
