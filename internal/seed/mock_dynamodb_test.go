package seed

import (
	"context"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// pagedMock serves Scan from in-memory tables, pageSize items at a time.
type pagedMock struct {
	mu        sync.Mutex
	tables    map[string][]map[string]types.AttributeValue
	pageSize  int
	scanCalls int
}

func newPagedMock(pageSize int) *pagedMock {
	return &pagedMock{
		tables:   map[string][]map[string]types.AttributeValue{},
		pageSize: pageSize,
	}
}

func (m *pagedMock) put(table string, records ...any) {
	for _, r := range records {
		item, err := attributevalue.MarshalMap(r)
		if err != nil {
			panic(err)
		}
		m.tables[table] = append(m.tables[table], item)
	}
}

func (m *pagedMock) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanCalls++

	items, ok := m.tables[*params.TableName]
	if !ok {
		msg := "Requested resource not found"
		return nil, &types.ResourceNotFoundException{Message: &msg}
	}

	start := 0
	if k, ok := params.ExclusiveStartKey["offset"].(*types.AttributeValueMemberN); ok {
		start, _ = strconv.Atoi(k.Value)
	}
	end := start + m.pageSize
	if end > len(items) {
		end = len(items)
	}

	out := &dyn.ScanOutput{Items: items[start:end], Count: int32(end - start)}
	if end < len(items) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"offset": &types.AttributeValueMemberN{Value: strconv.Itoa(end)},
		}
	}
	return out, nil
}
