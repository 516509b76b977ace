package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/rpc/common"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for rKV servers",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)

	// latencies holds one timer per benchmark
	latencies = gometrics.NewRegistry()
)

// benchmark is one named workload. op is called with the iteration counter of the worker.
type benchmark struct {
	name    string
	prepare func(ctx context.Context, keys []string) error
	op      func(ctx context.Context, keys []string, i int) error
}

func init() {
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")
	return nil
}

// benchmarks returns the workloads in execution order
func benchmarks() []benchmark {
	value := []byte("test")
	largeValue := make([]byte, perfLargeValueSizeKB*1024)

	fill := func(ctx context.Context, keys []string) error {
		for _, k := range keys {
			if _, err := rpcClient.DoStrings(ctx, "SET", k, "test"); err != nil {
				return err
			}
		}
		return nil
	}

	return []benchmark{
		{
			name: "set",
			op: func(ctx context.Context, keys []string, i int) error {
				return rpcClient.Set(ctx, []byte(keys[i%len(keys)]), value)
			},
		},
		{
			name: "set-large",
			op: func(ctx context.Context, keys []string, i int) error {
				return rpcClient.Set(ctx, []byte(keys[i%len(keys)]), largeValue)
			},
		},
		{
			name:    "get",
			prepare: fill,
			op: func(ctx context.Context, keys []string, i int) error {
				_, _, err := rpcClient.Get(ctx, []byte(keys[i%len(keys)]))
				return err
			},
		},
		{
			name: "get-not",
			op: func(ctx context.Context, keys []string, i int) error {
				_, _, err := rpcClient.Get(ctx, []byte(keys[i%len(keys)]))
				return err
			},
		},
		{
			name: "incr",
			op: func(ctx context.Context, keys []string, i int) error {
				_, err := rpcClient.DoStrings(ctx, "INCR", keys[i%len(keys)])
				return err
			},
		},
		{
			name: "hset",
			op: func(ctx context.Context, keys []string, i int) error {
				_, err := rpcClient.DoStrings(ctx, "HSET", keys[0], keys[i%len(keys)], "test")
				return err
			},
		},
		{
			name: "zadd",
			op: func(ctx context.Context, keys []string, i int) error {
				_, err := rpcClient.DoStrings(ctx, "ZADD", keys[0], strconv.Itoa(i), keys[i%len(keys)])
				return err
			},
		},
		{
			name:    "mixed",
			prepare: fill,
			op: func(ctx context.Context, keys []string, i int) error {
				key := keys[i%len(keys)]
				var err error
				switch i % 4 {
				case 0:
					_, err = rpcClient.DoStrings(ctx, "SET", key, "test")
				case 1:
					_, err = rpcClient.DoStrings(ctx, "GET", key)
				case 2:
					_, err = rpcClient.DoStrings(ctx, "DEL", key)
				case 3:
					_, err = rpcClient.DoStrings(ctx, "EXISTS", key)
				}
				return err
			},
		},
	}
}

func runPerf(cmd *cobra.Command, _ []string) error {
	defer rpcClient.Close()
	ctx := context.Background()

	fmt.Println("Performance testing tool for rKV servers")

	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("starting tests...")

	results := make(map[string]testing.BenchmarkResult)
	for _, bm := range benchmarks() {
		if shouldSkip(bm.name) {
			results[bm.name] = testing.BenchmarkResult{}
			printResult(bm.name, results[bm.name])
			continue
		}
		results[bm.name] = runBenchmark(ctx, bm)
		printResult(bm.name, results[bm.name])
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}
	return nil
}

// runBenchmark runs one workload in parallel and records every call in the latency timer
func runBenchmark(ctx context.Context, bm benchmark) testing.BenchmarkResult {
	keys := getKeys(bm.name)
	timer := gometrics.GetOrRegisterTimer(bm.name, latencies)

	return testing.Benchmark(func(b *testing.B) {
		if bm.prepare != nil {
			if err := bm.prepare(ctx, keys); err != nil {
				log.Printf("(%s) - error preparing keys: %v\n", bm.name, err)
			}
		}

		b.Cleanup(func() {
			args := make([][]byte, 0, len(keys)+1)
			args = append(args, []byte("DEL"))
			for _, k := range keys {
				args = append(args, []byte(k))
			}
			if _, err := rpcClient.Do(ctx, args...); err != nil {
				log.Printf("(%s) - error deleting keys: %v\n", bm.name, err)
			}
		})

		b.SetParallelism(perfNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				start := time.Now()
				if err := bm.op(ctx, keys, counter); err != nil {
					log.Printf("(%s) - error: %v\n", bm.name, err)
				}
				timer.UpdateSince(start)
				counter++
			}
		})
	})
}

func shouldSkip(test string) bool {
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

func getKeys(prefix string) []string {
	keys := make([]string, perfKeySpread)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}
	return keys
}

// percentiles returns the p50, p99 and p99.9 latencies of a benchmark
func percentiles(test string) (time.Duration, time.Duration, time.Duration) {
	timer, ok := latencies.Get(test).(gometrics.Timer)
	if !ok || timer.Count() == 0 {
		return 0, 0, 0
	}
	ps := timer.Snapshot().Percentiles([]float64{0.5, 0.99, 0.999})
	return time.Duration(ps[0]), time.Duration(ps[1]), time.Duration(ps[2])
}

func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)
	p50, p99, p999 := percentiles(test)

	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\tp50=%s p99=%s p99.9=%s\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec, p50, p99, p999)
}

func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "P50", "P99", "P999", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"Database", "Transport",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for test, result := range results {
		var nsPerOp, opsPerSec float64
		skipped := "true"
		if result.NsPerOp() != 0 {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}
		p50, p99, p999 := percentiles(test)

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			p50.String(),
			p99.String(),
			p999.String(),
			skipped,
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			strconv.FormatUint(config.Database, 10),
			config.Transport.Type,
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
