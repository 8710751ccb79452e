/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"os"
	"sync"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/notargets/gamr/InputParameters"
	"github.com/notargets/gamr/amr"
	"github.com/notargets/gamr/pgen"
	"github.com/notargets/gamr/utils"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Advance a problem from an input deck or a restart file",
	Long: `
Reads a YAML input deck, decomposes the mesh into blocks, distributes
them over the requested number of ranks and advances the solution to
the time limit.

gamr run -i deck.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		deckFile, _ := cmd.Flags().GetString("input")
		restartFile, _ := cmd.Flags().GetString("restart")
		nproc, _ := cmd.Flags().GetInt("nproc")
		prof, _ := cmd.Flags().GetBool("profile")
		if len(deckFile) == 0 {
			fmt.Printf("error: must supply an input deck (-i, --input)\n")
			os.Exit(1)
		}
		if prof {
			defer profile.Start(profile.CPUProfile).Stop()
		}
		if err := RunDeck(deckFile, restartFile, nproc); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("input", "i", "", "YAML input deck")
	runCmd.Flags().StringP("restart", "r", "", "restart file to resume from")
	runCmd.Flags().IntP("nproc", "p", 1, "number of ranks to run in-process")
	runCmd.Flags().Bool("profile", false, "write a CPU profile")
}

func deckBool(pin *InputParameters.ParameterInput, section, name string) bool {
	return pin.GetOrAddString(section, name, "false") == "true"
}

// buildContext derives the per-rank run context from the deck's job
// section.
func buildContext(pin *InputParameters.ParameterInput, rank, nproc int, comm *utils.RankComm) *amr.RunContext {
	return &amr.RunContext{
		Rank:       rank,
		NProc:      nproc,
		Comm:       comm,
		NGhost:     2,
		MHD:        deckBool(pin, "job", "mhd"),
		GeneralRel: deckBool(pin, "job", "general_rel"),
		Radiation:  deckBool(pin, "job", "radiation"),
	}
}

// RunDeck drives one run. Each rank runs in its own goroutine with its
// own mesh and its own parse of the deck; they interact only through
// the rank transport.
func RunDeck(deckFile, restartFile string, nproc int) error {
	data, err := ioutil.ReadFile(deckFile)
	if err != nil {
		return err
	}
	comm := utils.NewRankComm(nproc, 4096)

	errs := make([]error, nproc)
	var wg sync.WaitGroup
	start := time.Now()
	var cellsTotal int64
	var cellsMu sync.Mutex
	for rank := 0; rank < nproc; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			cells, err := runRank(data, restartFile, rank, nproc, comm)
			if err != nil {
				errs[rank] = err
				return
			}
			cellsMu.Lock()
			cellsTotal += cells
			cellsMu.Unlock()
		}(rank)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	elapsed := time.Since(start).Seconds()
	if elapsed > 0 {
		fmt.Printf("cell updates per second = %g\n", float64(cellsTotal)/elapsed)
	}
	return nil
}

func runRank(deck []byte, restartFile string, rank, nproc int, comm *utils.RankComm) (cellUpdates int64, err error) {
	pin := InputParameters.NewParameterInput()
	if err = pin.Parse(deck); err != nil {
		return
	}
	ctx := buildContext(pin, rank, nproc, comm)

	var m *amr.Mesh
	if len(restartFile) > 0 {
		var f *os.File
		if f, err = os.Open(restartFile); err != nil {
			return
		}
		defer f.Close()
		if m, err = amr.NewMeshFromRestart(f, pin, ctx); err != nil {
			return
		}
	} else {
		if m, err = amr.NewMesh(pin, ctx); err != nil {
			return
		}
		gen, gerr := pgen.Get(pin.GetOrAddString("job", "problem_id", "uniform"))
		if gerr != nil {
			return 0, gerr
		}
		if err = m.Initialize(gen, pin); err != nil {
			return
		}
	}

	m.SetTaskList(amr.DefaultTaskList(ctx, m.NDim))
	cellsPerCycle := m.GetTotalCells()
	for m.Time < m.TLim && (m.NLim < 0 || m.NCycle < m.NLim) {
		if rank == 0 {
			fmt.Printf("cycle=%d time=%.5e dt=%.5e\n", m.NCycle, m.Time, m.DT)
		}
		m.UpdateOneStep()
		cellUpdates += cellsPerCycle
	}
	if rank == 0 {
		fmt.Printf("terminating: time=%.5e cycle=%d\n", m.Time, m.NCycle)
	}

	if out := pin.GetOrAddString("job", "restart_out", ""); len(out) > 0 && nproc == 1 {
		var f *os.File
		if f, err = os.Create(out); err != nil {
			return
		}
		defer f.Close()
		if err = m.WriteRestart(f); err != nil {
			return
		}
	}
	return
}
