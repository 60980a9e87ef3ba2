package tabrec_test

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jpl-au/tabrec"
)

type sample struct {
	Name  string  `tabrec:"name"`
	Depth int     `tabrec:"depth"`
	Score float64 `tabrec:"score"`
}

func Example() {
	dir, _ := os.MkdirTemp("", "tabrec-example")
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "samples.tsv")

	// Write a typed table: the header comes from the struct tags.
	w, err := tabrec.OpenWriter[sample](path, tabrec.Config{})
	if err != nil {
		log.Fatal(err)
	}
	w.WriteAll([]sample{
		{Name: "alpha", Depth: 3, Score: 0.92},
		{Name: "beta", Depth: 1, Score: 0.4},
	})
	w.Close()

	// Read it back as typed records.
	r, err := tabrec.OpenReader[sample](path, tabrec.Config{})
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()

	for rec, err := range r.All() {
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s depth=%d score=%v\n", rec.Name, rec.Depth, rec.Score)
	}
	// Output: alpha depth=3 score=0.92
	// beta depth=1 score=0.4
}

func ExampleNewReader() {
	input := "# sensor dump\nname\tdepth\tscore\ngamma\t7\t0.5\n"

	r, err := tabrec.NewReader[sample](strings.NewReader(input), tabrec.Config{})
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()

	rec, _ := r.Read()
	fmt.Println(rec.Name, rec.Depth, r.Preface()[0])
	// Output: gamma 7 # sensor dump
}

func ExampleSchemaOf() {
	s, err := tabrec.SchemaOf[sample]()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(strings.Join(s.Names(), ","))
	fmt.Println(len(s.Fingerprint(tabrec.AlgXXHash3)))
	// Output: name,depth,score
	// 16
}
