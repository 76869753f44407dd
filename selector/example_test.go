package selector_test

import (
	"fmt"
	"log"

	"github.com/arloliu/bitrec/codec"
	"github.com/arloliu/bitrec/record"
	"github.com/arloliu/bitrec/selector"
	"github.com/arloliu/bitrec/stats"
)

// ExampleSelect derives a plan from column statistics and encodes with it.
func ExampleSelect() {
	def, err := record.NewBuilder().
		Column("port").Type(record.TypeUint64).
		Column("proto").Type(record.TypeString).Nullable().
		Build()
	if err != nil {
		log.Fatal(err)
	}

	records := []record.Record{
		{uint64(8080), "tcp"},
		{uint64(8081), "udp"},
		{uint64(8082), nil},
		{uint64(8083), "tcp"},
	}

	table, err := stats.Collect(def, records)
	if err != nil {
		log.Fatal(err)
	}

	result, err := selector.Select(def, table)
	if err != nil {
		log.Fatal(err)
	}

	for _, col := range result.Columns {
		fmt.Printf("%s: %s\n", col.Name, col.Best)
	}

	_, summary, err := codec.EncodeRecords(result.Plan, records)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("expected %d bits, wrote %d bits\n", result.ExpectedBits(), summary.TotalBits)

	// Output:
	// port: Candidate{Code: TruncatedBinary(5), Bits: 10}
	// proto: Candidate{Code: TruncatedBinary(3), Bits: 79}
	// expected 89 bits, wrote 89 bits
}
