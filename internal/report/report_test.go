package report

import (
	"fmt"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"leaf-health-bot/internal/domain/entity"
)

func TestAdviceCoversEveryValue(t *testing.T) {
	for _, s := range entity.Severities() {
		require.NotEqual(t, noAdvice, SeverityAdvice(s), "severity %s", s)
	}
	for _, s := range entity.Symptoms() {
		require.NotEqual(t, noAdvice, SymptomAdvice(s), "symptom %s", s)
	}
	require.Equal(t, noAdvice, SeverityAdvice("Unknown"))
	require.Equal(t, noAdvice, SymptomAdvice("Rust"))
}

func TestDescribe(t *testing.T) {
	text := NewDescriber().Describe(&entity.DiagnosisResult{
		ImageID:    "leaf.jpg",
		Severity:   entity.SeverityModerate,
		Percentage: 42.126,
		Symptoms:   []entity.Symptom{entity.SymptomYellowing, entity.SymptomHoles},
	})
	require.Contains(t, text, "leaf.jpg")
	require.Contains(t, text, "Severity: Moderate")
	require.Contains(t, text, "42.13%")
	require.Contains(t, text, "Symptoms: Yellowing, Holes")
	require.Contains(t, text, SeverityAdvice(entity.SeverityModerate))
	require.Contains(t, text, SymptomAdvice(entity.SymptomHoles))

	healthy := NewDescriber().Describe(&entity.DiagnosisResult{Severity: entity.SeverityHealthy})
	require.Contains(t, healthy, "Symptoms: none")
	require.Equal(t, noAdvice, NewDescriber().Describe(nil))
}

func TestMarkdown_OneSectionPerImage(t *testing.T) {
	results := []*entity.DiagnosisResult{
		{ImageID: "a.jpg", Severity: entity.SeverityLow, Percentage: 12, Width: 10, Height: 20},
		nil,
		{ImageID: "b.jpg", Severity: entity.SeveritySevere, Percentage: 80, Symptoms: []entity.Symptom{entity.SymptomDriedEdges}},
		{Severity: entity.SeverityHealthy},
	}
	out := string(Markdown(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), results))

	require.Contains(t, out, "Generated: `2026-01-02 03:04:05 UTC`")
	require.Contains(t, out, "## a.jpg")
	require.Contains(t, out, "## b.jpg")
	require.Contains(t, out, "## image 3")
	require.Contains(t, out, "Size: `10x20`")
	require.Contains(t, out, "Dried Edges: "+SymptomAdvice(entity.SymptomDriedEdges))
	require.Equal(t, 4, strings.Count(out, "\n## "))
	require.Contains(t, out, "Images: `3`")
	require.Contains(t, out, "Images with Dried Edges: `1`")
	require.NotContains(t, out, "Images with Holes")

	empty := string(Markdown(time.Now(), nil))
	require.Contains(t, empty, "No images analyzed.")

	onlyNil := string(Markdown(time.Now(), []*entity.DiagnosisResult{nil}))
	require.Contains(t, onlyNil, "No images analyzed.")
}

func TestMarkdown_ListsLargestLesions(t *testing.T) {
	square := func(x0, y0, side int, area float64) entity.Region {
		return entity.Region{
			Points: []image.Point{image.Pt(x0, y0), image.Pt(x0+side-1, y0), image.Pt(x0+side-1, y0+side-1), image.Pt(x0, y0+side-1)},
			Area:   area,
		}
	}
	regions := []entity.Region{square(0, 0, 3, 4)}
	for i := 1; i <= maxListedLesions; i++ {
		regions = append(regions, square(10*i, 10*i, 5, float64(10+i)))
	}
	res := &entity.DiagnosisResult{ImageID: "spots.jpg", Severity: entity.SeverityLow, Regions: regions}

	out := string(Markdown(time.Now(), []*entity.DiagnosisResult{res}))
	require.Contains(t, out, fmt.Sprintf("- Lesions: `%d`", len(regions)))
	require.Contains(t, out, "at (52, 52), area `15.0` px")
	require.NotContains(t, out, "area `4.0` px")
	require.Less(t, strings.Index(out, "area `15.0`"), strings.Index(out, "area `11.0`"))
}

func TestSummarize(t *testing.T) {
	sum := Summarize([]*entity.DiagnosisResult{
		{Severity: entity.SeverityLow, Percentage: 10, Symptoms: []entity.Symptom{entity.SymptomHoles}},
		{Severity: entity.SeverityModerate, Percentage: 30, Symptoms: []entity.Symptom{entity.SymptomHoles, entity.SymptomYellowing}},
		nil,
	})
	require.Equal(t, 2, sum.Count)
	require.InDelta(t, 20, sum.MeanPercentage, 1e-9)
	require.InDelta(t, 14.142135, sum.StdDevPercentage, 1e-5)
	require.Equal(t, 1, sum.BySeverity[entity.SeverityLow])
	require.Equal(t, 2, sum.BySymptom[entity.SymptomHoles])

	single := Summarize([]*entity.DiagnosisResult{{Percentage: 5}})
	require.Equal(t, 0.0, single.StdDevPercentage)

	require.Equal(t, 0, Summarize(nil).Count)
}

func TestHeightfield(t *testing.T) {
	m := entity.NewMask(3, 2)
	m.Set(2, 1, true)

	hf := Heightfield(m)
	rows, cols := hf.Dims()
	require.Equal(t, 2, rows)
	require.Equal(t, 3, cols)
	require.Equal(t, float64(MaskHeight), hf.At(1, 2))
	require.Equal(t, 0.0, hf.At(0, 0))

	require.Nil(t, Heightfield(nil))
	require.Nil(t, Heightfield(entity.NewMask(0, 4)))
}
