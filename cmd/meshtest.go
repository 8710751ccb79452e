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

	"github.com/spf13/cobra"

	"github.com/notargets/gamr/InputParameters"
	"github.com/notargets/gamr/amr"
)

// meshtestCmd represents the meshtest command
var meshtestCmd = &cobra.Command{
	Use:   "meshtest",
	Short: "Decompose and distribute the mesh without running",
	Long: `
Builds the block tree and the rank distribution for a deck and prints
them, for checking a decomposition before committing to a run.

gamr meshtest -i deck.yaml -p 16`,
	Run: func(cmd *cobra.Command, args []string) {
		deckFile, _ := cmd.Flags().GetString("input")
		nproc, _ := cmd.Flags().GetInt("nproc")
		if len(deckFile) == 0 {
			fmt.Printf("error: must supply an input deck (-i, --input)\n")
			os.Exit(1)
		}
		data, err := ioutil.ReadFile(deckFile)
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		pin := InputParameters.NewParameterInput()
		if err = pin.Parse(data); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		// the distribution is computed globally, rank 0 sees all of it
		ctx := buildContext(pin, 0, nproc, nil)
		m, err := amr.NewMesh(pin, ctx)
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		m.MeshTest()
	},
}

func init() {
	rootCmd.AddCommand(meshtestCmd)
	meshtestCmd.Flags().StringP("input", "i", "", "YAML input deck")
	meshtestCmd.Flags().IntP("nproc", "p", 1, "number of ranks to distribute over")
}
