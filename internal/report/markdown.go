package report

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"leaf-health-bot/internal/domain/entity"
)

// maxListedLesions: сколько крупнейших очагов перечислять в разделе снимка.
const maxListedLesions = 5

// Markdown собирает отчёт по нескольким снимкам, по разделу на снимок. nil пропускаются.
func Markdown(generatedAt time.Time, results []*entity.DiagnosisResult) []byte {
	results = slices.DeleteFunc(slices.Clone(results), func(r *entity.DiagnosisResult) bool {
		return r == nil
	})

	var b strings.Builder
	fmt.Fprintf(&b, "# Crop health report\n\n")
	fmt.Fprintf(&b, "- Generated: `%s`\n", generatedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- Images: `%d`\n\n", len(results))

	if len(results) == 0 {
		b.WriteString("No images analyzed.\n")
		return []byte(b.String())
	}

	sum := Summarize(results)
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Mean diseased area: `%.2f%%`\n", sum.MeanPercentage)
	fmt.Fprintf(&b, "- Std. deviation: `%.2f`\n", sum.StdDevPercentage)
	for _, s := range entity.Severities() {
		fmt.Fprintf(&b, "- %s: `%d`\n", s, sum.BySeverity[s])
	}
	for _, s := range entity.Symptoms() {
		if n := sum.BySymptom[s]; n > 0 {
			fmt.Fprintf(&b, "- Images with %s: `%d`\n", s, n)
		}
	}
	b.WriteString("\n")

	for i, r := range results {
		name := r.ImageID
		if name == "" {
			name = fmt.Sprintf("image %d", i+1)
		}
		fmt.Fprintf(&b, "## %s\n\n", name)
		fmt.Fprintf(&b, "- Severity: **%s**\n", r.Severity)
		fmt.Fprintf(&b, "- Diseased area: `%.2f%%`\n", r.Percentage)
		fmt.Fprintf(&b, "- Size: `%dx%d`\n", r.Width, r.Height)
		fmt.Fprintf(&b, "- Symptoms: %s\n", symptomList(r.Symptoms))
		fmt.Fprintf(&b, "- Precautions: %s\n", SeverityAdvice(r.Severity))
		for _, s := range r.Symptoms {
			fmt.Fprintf(&b, "  - %s: %s\n", s, SymptomAdvice(s))
		}
		writeLesions(&b, r.Regions)
		b.WriteString("\n")
	}

	return []byte(b.String())
}

// writeLesions перечисляет крупнейшие очаги: центр и площадь.
func writeLesions(b *strings.Builder, regions []entity.Region) {
	if len(regions) == 0 {
		return
	}
	fmt.Fprintf(b, "- Lesions: `%d`\n", len(regions))

	largest := slices.Clone(regions)
	slices.SortStableFunc(largest, func(x, y entity.Region) int {
		return cmp.Compare(y.Area, x.Area)
	})
	for _, r := range largest[:min(len(largest), maxListedLesions)] {
		x, y := r.Center()
		fmt.Fprintf(b, "  - at (%d, %d), area `%.1f` px\n", x, y, r.Area)
	}
}
