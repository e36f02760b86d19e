// Package firehose implements the Sink contract on top of Amazon Kinesis
// Data Firehose. Firehose is a write-only destination, so this package has
// no Source.
package firehose

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/firehose"
)

// Sink puts records onto a single Firehose delivery stream.
type Sink struct {
	client       *firehose.Firehose
	deliveryName string
}

// NewSink returns a Sink that delivers to deliveryStreamName.
func NewSink(sess *session.Session, deliveryStreamName string) *Sink {
	return &Sink{client: firehose.New(sess), deliveryName: deliveryStreamName}
}

func (s *Sink) Write(ctx context.Context, body []byte) error {
	// Firehose record boundaries are not preserved for consumers reading
	// the destination as a stream of newline-delimited records, so a
	// trailing newline is appended the way most Firehose JSON/Thrift
	// producers do.
	record := append(append([]byte(nil), body...), '\n')
	_, err := s.client.PutRecordWithContext(ctx, &firehose.PutRecordInput{
		DeliveryStreamName: aws.String(s.deliveryName),
		Record:             &firehose.Record{Data: record},
	})
	if err != nil {
		return fmt.Errorf("firehose: put record: %w", err)
	}
	return nil
}

func (s *Sink) Close() error { return nil }
