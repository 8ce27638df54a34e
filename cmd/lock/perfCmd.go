package lock

import (
	"encoding/csv"
	"fmt"
	"github.com/ValentinKolb/davlock/cmd/util"
	"github.com/ValentinKolb/davlock/lib/davlock"
	"github.com/ValentinKolb/davlock/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for davlock servers",
		Long:    util.WrapString("Runs benchmarks of the lock operations against a server. All locks are created below --prefix and removed afterwards."),
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfPrefix     = "/__perf"
	perfNumThreads = 10
	perfPathSpread = 100
	perfSkip       = make([]string, 0)
)

func init() {
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. add,refresh)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "paths"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different paths to use for the tests"))
	key = "prefix"
	perfTestCmd.Flags().String(key, "/__perf", util.WrapString("Collection below which all test locks are created"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfPathSpread = max(1, viper.GetInt("paths"))
	perfNumThreads = max(1, viper.GetInt("threads"))
	perfPrefix = viper.GetString("prefix")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	if _, err := davlock.CanonicalPath(perfPrefix); err != nil {
		return err
	}
	return nil
}

// benchmark is a single named benchmark, run gets the test path of an index
type benchmark struct {
	name string
	run  func(b *testing.B, path func(int) string)
}

var benchmarks = []benchmark{
	{
		// shared locks never conflict, so every iteration creates a new lock
		name: "add-shared",
		run: func(b *testing.B, path func(int) string) {
			var counter atomic.Int64
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					_, err := rpcLockMgr.AddLock(davlock.LockRequest{
						Path:    path(int(counter.Add(1))),
						Type:    davlock.SharedWrite,
						Timeout: davlock.Seconds(60),
					})
					if err != nil {
						log.Printf("(add-shared) - error adding lock: %v\n", err)
					}
				}
			})
		},
	},
	{
		// exclusive add and remove of the same lock
		name: "add-remove",
		run: func(b *testing.B, path func(int) string) {
			var counter atomic.Int64
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					lock, err := rpcLockMgr.AddLock(davlock.LockRequest{
						Path: path(int(counter.Add(1))) + "/exclusive",
						Type: davlock.ExclusiveWrite,
					})
					if err != nil {
						// conflicts with other threads are expected
						continue
					}
					if _, err := rpcLockMgr.RemoveLock(lock); err != nil {
						log.Printf("(add-remove) - error removing lock: %v\n", err)
					}
				}
			})
		},
	},
	{
		name: "get-applicable",
		run: func(b *testing.B, path func(int) string) {
			var counter atomic.Int64
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					if _, err := rpcLockMgr.GetLocks(path(int(counter.Add(1)))+"/file", davlock.SelectApplicable, nil); err != nil {
						log.Printf("(get-applicable) - error listing locks: %v\n", err)
					}
				}
			})
		},
	},
	{
		name: "conflicts",
		run: func(b *testing.B, path func(int) string) {
			var counter atomic.Int64
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					_, err := rpcLockMgr.GetConflictingLocks(path(int(counter.Add(1))), davlock.ExclusiveWrite, davlock.SelectAll, "")
					if err != nil {
						log.Printf("(conflicts) - error listing locks: %v\n", err)
					}
				}
			})
		},
	},
	{
		name: "refresh",
		run: func(b *testing.B, path func(int) string) {
			b.StopTimer()
			locks := make([]davlock.ActiveLock, 0, perfPathSpread)
			for i := 0; i < perfPathSpread; i++ {
				lock, err := rpcLockMgr.AddLock(davlock.LockRequest{Path: path(i) + "/refresh", Type: davlock.SharedWrite})
				if err != nil {
					b.Fatalf("(refresh) - error adding lock: %v", err)
				}
				locks = append(locks, lock)
			}
			b.StartTimer()

			var counter atomic.Int64
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					lock := locks[int(counter.Add(1))%len(locks)]
					if _, _, err := rpcLockMgr.RefreshLock(lock, davlock.Seconds(60)); err != nil {
						log.Printf("(refresh) - error refreshing lock: %v\n", err)
					}
				}
			})
		},
	},
}

func runPerf(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for davlock servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Namespace: %s\n", util.GetNamespace())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("starting tests...")

	paths := make([]string, perfPathSpread)
	for i := range paths {
		paths[i] = fmt.Sprintf("%s/%d", strings.TrimSuffix(perfPrefix, "/"), i)
	}
	path := func(i int) string { return paths[i%len(paths)] }

	results := make(map[string]testing.BenchmarkResult)
	for _, bench := range benchmarks {
		result := testing.Benchmark(func(b *testing.B) {
			if shouldSkip(bench.name) {
				return
			}
			b.Cleanup(cleanup)
			b.SetParallelism(perfNumThreads)
			b.ResetTimer()
			bench.run(b, path)
		})
		results[bench.name] = result
		printResult(bench.name, result)
	}

	// Write results to CSV if path is provided
	if csvPath := viper.GetString("csv"); csvPath != "" {
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to write CSV results: %v", err)
		}
		fmt.Printf("\nResults saved to %s\n", csvPath)
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// cleanup removes all test locks
func cleanup() {
	if _, err := rpcLockMgr.RemoveLocks(perfPrefix, davlock.RemoveRecursive); err != nil {
		log.Printf("error removing test locks: %v\n", err)
	}
}

func shouldSkip(test string) bool {
	return slices.Contains(perfSkip, test)
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"Namespace", "Serializer", "Transport", "Threads", "Paths",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, bench := range benchmarks {
		result, ok := results[bench.name]
		if !ok {
			continue
		}

		nsPerOp, opsPerSec, skipped := 0.0, 0.0, "true"
		if result.NsPerOp() != 0 {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			bench.name,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			strings.Join(config.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.RetryCount),
			strconv.Itoa(config.ConnectionsPerEndpoint),
			util.GetNamespace(),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfPathSpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", bench.name, err)
		}
	}

	return nil
}
