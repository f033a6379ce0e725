package handler

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"call-insights/dto"
	"call-insights/entities"
)

type fakeProcessor struct {
	Processed []uint
	Err       error
}

func (f *fakeProcessor) Process(_ context.Context, callRecordID uint) error {
	f.Processed = append(f.Processed, callRecordID)
	return f.Err
}

type fakeReports struct {
	Generated []uint
	Err       error
}

func (f *fakeReports) ComputeReport(context.Context, uint) (*dto.Report, error) {
	return nil, errors.New("not used")
}

func (f *fakeReports) RequestRegeneration(context.Context, *entities.Tenant) (error, error) {
	return nil, errors.New("not used")
}

func (f *fakeReports) GenerateSnapshot(_ context.Context, tenantID uint) (string, error) {
	f.Generated = append(f.Generated, tenantID)
	return "reports/path.json", f.Err
}

func TestCallProcessHandler_DispatchesRecordID(t *testing.T) {
	proc := &fakeProcessor{}
	deps := ServiceDependencies{Processor: proc}

	msg := amqp.Delivery{Body: []byte(`{"call_record_id": 42}`)}
	if err := CallProcessHandler(context.Background(), msg, deps); err != nil {
		t.Fatalf("CallProcessHandler: %v", err)
	}
	if len(proc.Processed) != 1 || proc.Processed[0] != 42 {
		t.Fatalf("processed = %v, want [42]", proc.Processed)
	}
}

func TestCallProcessHandler_MalformedBody(t *testing.T) {
	proc := &fakeProcessor{}
	deps := ServiceDependencies{Processor: proc}

	msg := amqp.Delivery{Body: []byte(`{"call_record_id":`)}
	if err := CallProcessHandler(context.Background(), msg, deps); err == nil {
		t.Fatal("want error for malformed message body")
	}
	if len(proc.Processed) != 0 {
		t.Fatalf("processed = %v, want none", proc.Processed)
	}
}

func TestCallProcessHandler_PropagatesProcessError(t *testing.T) {
	wantErr := errors.New("analysis failed")
	deps := ServiceDependencies{Processor: &fakeProcessor{Err: wantErr}}

	msg := amqp.Delivery{Body: []byte(`{"call_record_id": 7}`)}
	if err := CallProcessHandler(context.Background(), msg, deps); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestReportGenerateHandler_DispatchesTenantID(t *testing.T) {
	reports := &fakeReports{}
	deps := ServiceDependencies{Reports: reports}

	msg := amqp.Delivery{Body: []byte(`{"tenant_id": 3}`)}
	if err := ReportGenerateHandler(context.Background(), msg, deps); err != nil {
		t.Fatalf("ReportGenerateHandler: %v", err)
	}
	if len(reports.Generated) != 1 || reports.Generated[0] != 3 {
		t.Fatalf("generated = %v, want [3]", reports.Generated)
	}
}

func TestReportGenerateHandler_MalformedBody(t *testing.T) {
	reports := &fakeReports{}
	deps := ServiceDependencies{Reports: reports}

	msg := amqp.Delivery{Body: []byte(`not json`)}
	if err := ReportGenerateHandler(context.Background(), msg, deps); err == nil {
		t.Fatal("want error for malformed message body")
	}
	if len(reports.Generated) != 0 {
		t.Fatalf("generated = %v, want none", reports.Generated)
	}
}
