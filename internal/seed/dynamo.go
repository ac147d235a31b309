package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/dishflow/internal/aws"
	"github.com/imrishuroy/dishflow/internal/dishes"
	"github.com/imrishuroy/dishflow/internal/orders"
)

// ErrTableNotFound is returned when a seed table does not exist.
var ErrTableNotFound = errors.New("seed table not found")

// DynamoDB loads seed records by scanning one table per collection.
type DynamoDB struct {
	Client      aws.DynamoDBAPI
	DishesTable string
	OrdersTable string
}

// Load implements Loader.
func (s DynamoDB) Load(ctx context.Context) (*Data, error) {
	ds, err := scanAll[*dishes.Dish](ctx, s.Client, s.DishesTable)
	if err != nil {
		return nil, err
	}
	ords, err := scanAll[*orders.Order](ctx, s.Client, s.OrdersTable)
	if err != nil {
		return nil, err
	}
	return &Data{Dishes: ds, Orders: ords}, nil
}

func scanAll[T any](ctx context.Context, client aws.DynamoDBAPI, table string) ([]T, error) {
	out := []T{}
	p := dyn.NewScanPaginator(client, &dyn.ScanInput{TableName: &table})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			var ae smithy.APIError
			if errors.As(err, &ae) && ae.ErrorCode() == "ResourceNotFoundException" {
				return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
			}
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}

		var items []T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal %s items: %w", table, err)
		}
		out = append(out, items...)
	}
	return out, nil
}
