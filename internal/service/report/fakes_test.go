package report

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeGetter struct{}

func (fakeGetter) GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return nil, errors.New("not stubbed")
}

type nopQuerier struct{}

func (nopQuerier) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errors.New("not stubbed")
}
