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
	"math"
	"os"

	"github.com/notargets/dynmesh/InputParameters"
	"github.com/notargets/dynmesh/fields"
	"github.com/notargets/dynmesh/fluxcorrector"
	"github.com/notargets/dynmesh/mesh"
	"github.com/notargets/dynmesh/motion"
	"github.com/notargets/dynmesh/types"
	"github.com/notargets/dynmesh/utils"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

type ModelRun struct {
	DictFile    string
	Cells       []int
	Steps       int
	Amplitude   float64
	MovingPatch string
	Splits      int
	Profile     string
}

type RunSummary struct {
	Kind           types.MotionSolverKind
	Cells, Faces   int
	MaxPatchValue  float64 // Largest boundary velocity or reference point shift on the moving patch
	AddedFaces     int
	MaxImbalance   float64
	CorrectorTypes []string
}

// RunCmd represents the run command
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Moves a box mesh lid, then splits faces and corrects the fluxes",
	Long: `
Moves one patch of a box mesh through the motion solver boundary mapping,
then splits internal faces and restores flux conservation with the
configured flux corrector after each split.`,
	Run: func(cmd *cobra.Command, args []string) {
		mr := &ModelRun{
			DictFile:    viper.GetString("inputConditionsFile"),
			Cells:       viper.GetIntSlice("cells"),
			Steps:       viper.GetInt("steps"),
			Amplitude:   viper.GetFloat64("amplitude"),
			MovingPatch: viper.GetString("movingPatch"),
			Splits:      viper.GetInt("splits"),
			Profile:     viper.GetString("profile"),
		}
		switch mr.Profile {
		case "cpu":
			defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
		case "mem":
			defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop()
		}
		ip := processInput(mr)
		ip.Print()
		logger, err := newLogger()
		if err != nil {
			panic(err)
		}
		defer func() { _ = logger.Sync() }()
		summary, err := Run(mr, ip, logger)
		if err != nil {
			panic(err)
		}
		summary.Print()
		fmt.Println(utils.GetMemUsage())
	},
}

func init() {
	rootCmd.AddCommand(RunCmd)
	RunCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML dynamic mesh dictionary, containing:\n\t- solver\n\t- deltaT\n\t- fluxCorrector")
	RunCmd.Flags().IntSlice("cells", []int{4, 4, 4}, "cells in x, y and z")
	RunCmd.Flags().IntP("steps", "n", 10, "number of motion steps")
	RunCmd.Flags().Float64P("amplitude", "a", 0.1, "lid displacement amplitude")
	RunCmd.Flags().StringP("movingPatch", "p", mesh.BoxPatchNames[mesh.ZMax], "patch to move")
	RunCmd.Flags().IntP("splits", "s", 2, "number of internal faces to split")
	RunCmd.Flags().String("profile", "", "write a cpu or mem profile to the working directory")
	for _, name := range []string{"inputConditionsFile", "cells", "steps", "amplitude", "movingPatch", "splits", "profile"} {
		_ = viper.BindPFlag(name, RunCmd.Flags().Lookup(name))
	}
}

func processInput(mr *ModelRun) (ip *InputParameters.DynamicMeshDict) {
	var (
		err error
	)
	if len(mr.DictFile) == 0 {
		err = fmt.Errorf("must supply a dynamic mesh dictionary (-I, --inputConditionsFile)")
		fmt.Printf("error: %s\n", err.Error())
		exampleFile := `
########################################
Title: "Test Case"
solver: laplaceCellDecomposition
deltaT: 0.01
fluxCorrector:
  type: Poisson
  required: true
BCs:
  xMax: outlet
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	var data []byte
	if data, err = ioutil.ReadFile(mr.DictFile); err != nil {
		panic(err)
	}
	ip = &InputParameters.DynamicMeshDict{}
	if err = ip.Parse(data); err != nil {
		panic(err)
	}
	return
}

// Run slides the moving patch back and forth, then splits internal faces and
// restores the flux balance after each split
func Run(mr *ModelRun, ip *InputParameters.DynamicMeshDict, logger *zap.Logger) (s *RunSummary, err error) {
	if len(mr.Cells) != 3 {
		return nil, fmt.Errorf("%w: need 3 cell counts, have %v", types.ErrInvalidArgument, mr.Cells)
	}
	var (
		m    *mesh.Mesh
		kind types.MotionSolverKind
	)
	if kind, err = types.ParseMotionSolverKind(ip.Solver); err != nil {
		return
	}
	if m, err = mesh.NewBoxMesh(mr.Cells[0], mr.Cells[1], mr.Cells[2],
		r3.Vec{X: 1, Y: 1, Z: 1}, ip.BoundaryTypes()); err != nil {
		return
	}
	m.Time.DeltaT = ip.DeltaT
	if kind == types.FaceDecompositionFEM {
		m.EnableFaceDecomposition()
	}
	var (
		mf     *fields.MotionField
		mapper *motion.Mapper
		lid    *mesh.Patch
		corr   fluxcorrector.Corrector
		ff     = fields.NewFluxFieldFromVelocity(m, func(c r3.Vec) r3.Vec {
			return r3.Vec{X: -(c.Y - 0.5), Y: c.X - 0.5}
		})
	)
	if mf, err = fields.NewMotionField(m, kind); err != nil {
		return
	}
	if mapper, err = motion.NewMapper(m, mf, motion.WithLogger(logger)); err != nil {
		return
	}
	if lid, err = m.FindPatch(mr.MovingPatch); err != nil {
		return
	}
	if corr, err = fluxcorrector.New(m, ff, ip.FluxCorrector, logger); err != nil {
		return
	}
	s = &RunSummary{
		Kind:           kind,
		CorrectorTypes: fluxcorrector.Names(),
	}

	var (
		// Lid position x(t) = A sin(wt) reaches A after the last step
		omega = 0.5 * math.Pi / (float64(max(mr.Steps, 1)) * m.Time.DeltaT)
		total = make([]r3.Vec, lid.NumPoints())
	)
	for step := 0; step < mr.Steps; step++ {
		tOld := m.Time.Value
		m.Time.Advance()
		var (
			disp = make([]r3.Vec, lid.NumPoints())
			dx   = mr.Amplitude * (math.Sin(omega*m.Time.Value) - math.Sin(omega*tOld))
		)
		for i := range disp {
			disp[i] = r3.Vec{X: dx}
			total[i] = r3.Add(total[i], disp[i])
		}
		if err = mapper.ApplyPatch(lid.Index, disp); err != nil {
			return
		}
	}
	// Absolute positions for the accumulated lid motion
	newPoints := append([]r3.Vec(nil), m.Points...)
	for i, pt := range lid.MeshPoints {
		newPoints[pt] = r3.Add(newPoints[pt], total[i])
	}
	if err = mapper.ApplyMesh(newPoints); err != nil {
		return
	}
	if !mapper.Kind().IsFEM() {
		for _, pt := range lid.MeshPoints {
			s.MaxPatchValue = math.Max(s.MaxPatchValue, r3.Norm(r3.Sub(mf.RefPoints[pt], m.Points[pt])))
		}
	} else {
		for _, v := range mf.BoundaryValue[lid.Index] {
			s.MaxPatchValue = math.Max(s.MaxPatchValue, r3.Norm(v))
		}
	}

	for i := 0; i < mr.Splits && m.NumInternalFaces() > 0; i++ {
		var (
			fm    mesh.FaceMap
			added []int
			face  int
		)
		if face, err = splittableFace(m, i*37); err != nil {
			return
		}
		if fm, err = m.SplitInternalFace(face); err != nil {
			return
		}
		if added, err = ff.Map(fm); err != nil {
			return
		}
		s.AddedFaces += len(added)
		if err = corr.InterpolateFluxes(added); err != nil {
			return
		}
		if corr.Required() {
			if err = corr.UpdateFluxes(); err != nil {
				return
			}
		}
	}
	s.Cells, s.Faces = m.NumCells, m.NumFaces()
	s.MaxImbalance = ff.MaxImbalance(m)
	return
}

// splittableFace scans the internal faces once, starting at start, for a
// polygon with at least 4 points
func splittableFace(m *mesh.Mesh, start int) (face int, err error) {
	nInt := m.NumInternalFaces()
	for i := 0; i < nInt; i++ {
		face = (start + i) % nInt
		if len(m.Faces[face]) >= 4 {
			return
		}
	}
	return -1, fmt.Errorf("%w: none of the %d internal faces has 4 or more points to split",
		types.ErrInvalidArgument, nInt)
}

func (s *RunSummary) Print() {
	fmt.Printf("[%s]\t= Motion Solver Kind\n", s.Kind)
	fmt.Printf("%d cells, %d faces, %d faces added by splits\n", s.Cells, s.Faces, s.AddedFaces)
	fmt.Printf("%12.5e\t= Max moving patch value\n", s.MaxPatchValue)
	fmt.Printf("%12.5e\t= Max cell flux imbalance\n", s.MaxImbalance)
	fmt.Printf("Flux correctors available: %v\n", s.CorrectorTypes)
}
