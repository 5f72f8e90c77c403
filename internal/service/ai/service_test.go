package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"recipechat/internal/config"
)

type fakeModel struct {
	reply  *schema.Message
	err    error
	inputs [][]*schema.Message
}

func (f *fakeModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, input)
	return f.reply, f.err
}

func (f *fakeModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func TestGenerateSendsSingleUserTurn(t *testing.T) {
	fake := &fakeModel{reply: &schema.Message{Role: schema.Assistant, Content: "Shakshuka."}}
	svc := NewWithModel(fake, nil)

	got, err := svc.Generate(context.Background(), "egg, tomato")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "Shakshuka." {
		t.Fatalf("reply mismatch: %q", got)
	}
	if len(fake.inputs) != 1 || len(fake.inputs[0]) != 1 {
		t.Fatalf("expected one single-message call, got %#v", fake.inputs)
	}
	if msg := fake.inputs[0][0]; msg.Role != schema.User || msg.Content != "egg, tomato" {
		t.Fatalf("unexpected prompt message %#v", msg)
	}
}

func TestGenerateErrors(t *testing.T) {
	boom := errors.New("connection refused")
	if _, err := NewWithModel(&fakeModel{err: boom}, nil).Generate(context.Background(), "hi"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped model error, got %v", err)
	}
	blank := &fakeModel{reply: &schema.Message{Content: "  "}}
	if _, err := NewWithModel(blank, nil).Generate(context.Background(), "hi"); !errors.Is(err, ErrEmptyReply) {
		t.Fatalf("expected ErrEmptyReply, got %v", err)
	}
	var nilSvc *Service
	if _, err := nilSvc.Generate(context.Background(), "hi"); err == nil {
		t.Fatalf("expected error from nil service")
	}
}

func TestNewServiceDefaultsToOllama(t *testing.T) {
	svc, err := NewService(context.Background(), config.Default(), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if svc.Name() != "ollama/mistral" {
		t.Fatalf("unexpected model name %s", svc.Name())
	}
}

func TestNewServiceRejectsUnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = "watson"
	if _, err := NewService(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for unconfigured provider")
	}
	cfg.Providers["watson"] = config.ProviderConfig{Model: "x"}
	if _, err := NewService(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for unsupported provider")
	}
}
