package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/remoteop/netpath"
	dynamopath "github.com/unkn0wn-root/remoteop/netpath/dynamo"
	redispath "github.com/unkn0wn-root/remoteop/netpath/redis"
)

var errNotFound = errors.New("document not found")

// backend is one remote document store as seen by the commands.
type backend struct {
	path      netpath.Path
	retryable func(error) bool
	get       func(ctx context.Context, key string) ([]byte, error)
	close     func() error
}

// openBackend is replaced in tests.
var openBackend = func(ctx context.Context, cfg Config) (*backend, error) {
	switch cfg.Backend {
	case backendRedis:
		return openRedis(cfg), nil
	case backendDynamo:
		return openDynamo(ctx, cfg)
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func newRedisClient(cfg Config) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func openRedis(cfg Config) *backend {
	rdb := newRedisClient(cfg)
	// the path hooks rdb, so Get below fails fast while it is disabled
	return &backend{
		path:      redispath.New(rdb),
		retryable: redispath.Retryable,
		get: func(ctx context.Context, key string) ([]byte, error) {
			b, err := rdb.Get(ctx, key).Bytes()
			if errors.Is(err, goredis.Nil) {
				return nil, fmt.Errorf("%s: %w", key, errNotFound)
			}
			return b, err
		},
		close: rdb.Close,
	}
}

func openDynamo(ctx context.Context, cfg Config) (*backend, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.DynamoRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	db := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
		}
	})

	path := dynamopath.New(db, cfg.DynamoTable)
	return &backend{
		path:      path,
		retryable: dynamopath.Retryable,
		get: func(ctx context.Context, key string) ([]byte, error) {
			out, err := db.GetItem(ctx, &dynamodb.GetItemInput{
				TableName: aws.String(cfg.DynamoTable),
				Key: map[string]types.AttributeValue{
					cfg.DynamoKeyAttr: &types.AttributeValueMemberS{Value: key},
				},
				ConsistentRead: aws.Bool(true),
			}, path.Guard)
			if err != nil {
				return nil, err
			}
			if out.Item == nil {
				return nil, fmt.Errorf("%s: %w", key, errNotFound)
			}
			var doc map[string]any
			if err := attributevalue.UnmarshalMap(out.Item, &doc); err != nil {
				return nil, err
			}
			return json.Marshal(doc)
		},
		close: func() error { return nil },
	}, nil
}
