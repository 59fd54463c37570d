package requestctx

import (
	"context"
	"testing"
)

func TestAnnotateKeepsFirstOrderAndLastValue(t *testing.T) {
	ctx, annotations := WithAnnotations(context.Background())
	Annotate(ctx, "plan_id", "LETTER")
	Annotate(ctx, "design_outcome", "fallback")
	Annotate(ctx, "plan_id", "POSTCARD_STD")
	Annotate(ctx, "", "ignored")

	var got []string
	annotations.Each(func(key, value string) {
		got = append(got, key+"="+value)
	})
	if len(got) != 2 || got[0] != "plan_id=POSTCARD_STD" || got[1] != "design_outcome=fallback" {
		t.Fatalf("unexpected annotations %v", got)
	}
}

func TestAnnotateWithoutCollectorIsNoop(t *testing.T) {
	Annotate(context.Background(), "plan_id", "LETTER")
	var missing *Annotations
	missing.Each(func(string, string) { t.Fatal("nil collector must not yield entries") })
}
