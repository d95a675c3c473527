package config

// enumerated config values, validated on load

import (
	"github.com/orsinium-labs/enum"
)

type ModelFormat enum.Member[string]

var (
	mf = enum.NewBuilder[string, ModelFormat]()

	ModelONNX     = mf.Add(ModelFormat{"onnx"})
	ModelOpenVINO = mf.Add(ModelFormat{"openvino"})
	ModelCaffe    = mf.Add(ModelFormat{"caffe"})

	ModelFormats = mf.Enum()
)

type DeviceType enum.Member[string]

var (
	dt = enum.NewBuilder[string, DeviceType]()

	DeviceCPU = dt.Add(DeviceType{"cpu"})
	DeviceGPU = dt.Add(DeviceType{"gpu"})
	DeviceVPU = dt.Add(DeviceType{"vpu"})

	DeviceTypes = dt.Enum()
)

type InputType enum.Member[string]

var (
	ifl = enum.NewBuilder[string, InputType]()

	InputFile   = ifl.Add(InputType{"file"})
	InputWebcam = ifl.Add(InputType{"webcam"})
	InputIPC    = ifl.Add(InputType{"ipc"})
	// directory of still images
	InputImages = ifl.Add(InputType{"images"})

	InputTypes = ifl.Enum()
)

type OutputFormat enum.Member[string]

var (
	of = enum.NewBuilder[string, OutputFormat]()

	OutputVideo = of.Add(OutputFormat{"video"})
	OutputAVI   = of.Add(OutputFormat{"avi"})
	OutputNone  = of.Add(OutputFormat{"none"})

	OutputFormats = of.Enum()
)

type Solver enum.Member[string]

var (
	sv = enum.NewBuilder[string, Solver]()

	SolverJV        = sv.Add(Solver{"jv"})
	SolverHungarian = sv.Add(Solver{"hungarian"})
	SolverGreedy    = sv.Add(Solver{"greedy"})

	Solvers = sv.Enum()
)

type LoggingLevel enum.Member[string]

var (
	ll = enum.NewBuilder[string, LoggingLevel]()

	LoggingLevelDebug = ll.Add(LoggingLevel{"debug"})
	LoggingLevelInfo  = ll.Add(LoggingLevel{"info"})
	LoggingLevelWarn  = ll.Add(LoggingLevel{"warn"})
	LoggingLevelError = ll.Add(LoggingLevel{"error"})

	LoggingLevels = ll.Enum()
)
