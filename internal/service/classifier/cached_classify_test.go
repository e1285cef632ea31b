package classifier

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/Techmetria-Diego/IoT-Monitor/internal/model"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/service/batch"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/service/cache"
)

var errNoValue = errors.New("no value")

type kvBackend struct {
	mu     sync.Mutex
	values map[string]string
}

func (b *kvBackend) GetValue(key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.values[key]
	if !ok {
		return "", errNoValue
	}
	return v, nil
}

func (b *kvBackend) SetValue(key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
	return nil
}

func (s *fakeSource) counts() (downloads, copies int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloads, s.copies
}

func TestCachedClassify_SecondRunSkipsRemote(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		files: map[string][]byte{
			"direct": buildXLSX(t, map[int][]interface{}{
				1: reportHeader,
				2: {"Apto 101", "S1", 100, 105, 5, "Estável"},
				3: {"Apto 102", "S2", 200, 212, 12, "Alto Consumo"},
			}),
			"converted": buildXLSX(t, map[int][]interface{}{1: {"sem cabeçalho"}}),
		},
		converted: map[string][][]interface{}{
			"converted": {
				{"DESCRIÇÃO", "LEITURA ANTERIOR", "LEITURA ATUAL", "CONSUMO", "TENDÊNCIA"},
				{"Apto 1", 1.0, 2.0, 1.0, "Alto Consumo"},
				{"Apto 2", 1.0, 2.0, 1.0, "Alto Consumo"},
				{"Apto 3", 1.0, 2.0, 1.0, "Alto Consumo"},
			},
		},
	}
	statusCache := cache.Open(&kvBackend{values: map[string]string{}}, cache.Options{})
	orch := batch.NewOrchestrator(NewPipeline(src), statusCache, 5)

	items := []batch.Item{
		{FileID: "direct", DisplayName: "Condominio Alfa", ModifiedTime: "2025-10-01T10:00:00Z"},
		{FileID: "converted", DisplayName: "Condominio Beta", ModifiedTime: "2025-10-01T10:00:00Z"},
	}

	first, summary, err := orch.ClassifyAll(context.Background(), items, nil)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if summary.Computed != 2 || summary.CacheHits != 0 {
		t.Fatalf("first run summary=%+v", summary)
	}
	want := map[string]model.ReportClassification{
		"direct":    {Status: model.StatusAlert, HighConsumptionUnitsCount: 1},
		"converted": {Status: model.StatusError, HighConsumptionUnitsCount: 3},
	}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("first run=%+v, want %+v", first, want)
	}
	downloads, copies := src.counts()
	if downloads != 2 || copies != 1 {
		t.Fatalf("first run downloads=%d copies=%d, want 2 and 1", downloads, copies)
	}

	second, summary, err := orch.ClassifyAll(context.Background(), items, nil)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if !reflect.DeepEqual(second, first) {
		t.Fatalf("second run=%+v, want %+v", second, first)
	}
	if summary.CacheHits != 2 || summary.Computed != 0 {
		t.Fatalf("second run summary=%+v", summary)
	}
	if d, c := src.counts(); d != downloads || c != copies {
		t.Fatalf("second run touched remote: downloads=%d copies=%d", d, c)
	}

	// 文件被修改后重新计算
	src.mu.Lock()
	src.files["direct"] = buildXLSX(t, map[int][]interface{}{
		1: reportHeader,
		2: {"Apto 101", "S1", 100, 105, 5, "Estável"},
	})
	src.mu.Unlock()
	items[0].ModifiedTime = "2025-10-02T08:00:00Z"

	third, summary, err := orch.ClassifyAll(context.Background(), items, nil)
	if err != nil {
		t.Fatalf("third run failed: %v", err)
	}
	if summary.Computed != 1 || summary.CacheHits != 1 {
		t.Fatalf("third run summary=%+v", summary)
	}
	if third["direct"].Status != model.StatusNormal || third["converted"] != want["converted"] {
		t.Fatalf("third run=%+v", third)
	}
	if d, c := src.counts(); d != downloads+1 || c != copies {
		t.Fatalf("third run downloads=%d copies=%d, want %d and %d", d, c, downloads+1, copies)
	}
	if got, ok := statusCache.Get("direct", "2025-10-02T08:00:00Z"); !ok || got.Status != model.StatusNormal {
		t.Fatalf("recomputed entry not cached: %+v %v", got, ok)
	}
}
