package main

import (
	"strings"
	"testing"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/domain/repository"
)

func TestRenderReport(t *testing.T) {
	fc := &models.Forecast{
		Symbol:    "AAPL",
		LastClose: 189.5,
		NextClose: 190.256,
		MAE:       1.23456,
		RMSE:      1.5,
		TrainRows: 18,
		TestRows:  5,
	}
	out := renderReport(fc, repository.Interval60m)
	for _, want := range []string{"AAPL next close (60min bars)", "Predicted Close", "$190.26", "$189.50", "1.2346", "1.5000", "18 train / 5 test"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "predict"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("command %q not registered: %v", name, err)
		}
	}
	predict, _, _ := root.Find([]string{"predict"})
	if err := predict.Args(predict, nil); err == nil {
		t.Fatal("predict without a symbol should be rejected")
	}
	if f := predict.Flags().Lookup("interval"); f == nil || f.DefValue != "60min" {
		t.Fatalf("interval flag = %+v", f)
	}
}
