package main

import (
	"log"
	"math"
	"os"

	"github.com/deeprl/deeprl/agent/nonlinear/discrete/dqn"
	"github.com/deeprl/deeprl/environment/envconfig"
	"github.com/deeprl/deeprl/experiment"
	"github.com/deeprl/deeprl/experiment/checkpointer"
	"github.com/deeprl/deeprl/experiment/tracker"
	"github.com/deeprl/deeprl/expreplay"
	"github.com/deeprl/deeprl/initwfn"
	"github.com/deeprl/deeprl/network"
	"github.com/deeprl/deeprl/params"
	"github.com/deeprl/deeprl/solver"
	"github.com/deeprl/deeprl/utils/progressbar"
)

func main() {
	var seed int64 = 192382

	// Environment settings
	horizon := 1000
	gamma := 0.99

	// Learning loop settings
	nEpochs := 50
	nSteps := 1000     // Learning steps per epoch
	nStepsTest := 2000 // Evaluation steps per epoch
	trainFrequency := 1

	// Agent settings
	initialReplaySize := 500
	maxReplaySize := 5000
	batchSize := 32
	targetUpdateFrequency := 100
	hiddenSizes := []int{80, 80}
	stepSize := 0.0001

	// Exploration schedules. The training schedule decays linearly to
	// its floor; before learning starts, the replay buffer is seeded
	// with fully random behaviour.
	epsilonTrain := params.NewLinearDecay(1.0, 0.01, 5000)
	epsilonTest := params.NewConstant(0.0)
	epsilonRandom := params.NewConstant(1.0)

	// Create the environment
	envConf := envconfig.NewConfig(envconfig.Cartpole, envconfig.SwingUp,
		horizon, gamma)
	env, _, err := envConf.Create(uint64(seed))
	if err != nil {
		log.Fatalf("could not create environment: %v", err)
	}

	hiddenInit, err := initwfn.NewGlorotU(math.Sqrt2)
	if err != nil {
		log.Fatalf("could not create weight initializer: %v", err)
	}
	outputInit, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		log.Fatalf("could not create weight initializer: %v", err)
	}
	adam, err := solver.NewDefaultAdam(stepSize, batchSize)
	if err != nil {
		log.Fatalf("could not create solver: %v", err)
	}

	// Create the learning algorithm
	config := dqn.Config{
		PolicyLayers: hiddenSizes,
		Biases:       []bool{true, true},
		Activations: []*network.Activation{
			network.ReLU(),
			network.ReLU(),
		},
		InitWFn:       hiddenInit,
		OutputInitWFn: outputInit,
		Solver:        adam,

		Epsilon:     epsilonRandom,
		EvalEpsilon: epsilonTest,

		ReplayBuffer: expreplay.Config{
			SampleMethod:      expreplay.Uniform,
			SampleSize:        batchSize,
			MinReplayCapacity: initialReplaySize,
			MaxReplayCapacity: maxReplaySize,
		},

		Tau:                  1.0,
		TargetUpdateInterval: targetUpdateFrequency,
		BatchSize:            batchSize,
	}
	agent, err := dqn.New(env, config, seed)
	if err != nil {
		log.Fatalf("could not create agent: %v", err)
	}
	defer agent.Close()

	returns := tracker.NewReturn("./data.bin")
	core := experiment.NewCore(env, agent, returns)

	saver, err := checkpointer.NewMilestone(agent, "./agents",
		checkpointer.ParametersAndBuffer)
	if err != nil {
		log.Fatalf("could not create checkpointer: %v", err)
	}
	if err := saver.Checkpoint("initial"); err != nil {
		log.Fatalf("could not save initial checkpoint: %v", err)
	}

	// Evaluate the untrained agent
	episodes, err := core.Evaluate(nStepsTest)
	if err != nil {
		log.Fatalf("could not evaluate agent: %v", err)
	}
	log.Printf("epoch %d | J: %.3f | R: %.3f | epsilon: %.3f", 0,
		experiment.MeanDiscountedReturn(episodes, gamma),
		experiment.MeanReturn(episodes), agent.Policy().Epsilon())

	// Seed the replay buffer with random behaviour, then begin
	// decaying exploration
	if err := core.WarmUp(initialReplaySize); err != nil {
		log.Fatalf("could not seed replay buffer: %v", err)
	}
	agent.Policy().SetEpsilon(epsilonTrain)

	bar := progressbar.New(os.Stdout, 65, nEpochs)
	for epoch := 1; epoch <= nEpochs; epoch++ {
		if err := core.Learn(nSteps, trainFrequency); err != nil {
			log.Fatalf("could not run learning epoch %d: %v", epoch, err)
		}

		episodes, err := core.Evaluate(nStepsTest)
		if err != nil {
			log.Fatalf("could not evaluate agent: %v", err)
		}
		log.Printf("epoch %d | J: %.3f | R: %.3f | epsilon: %.3f", epoch,
			experiment.MeanDiscountedReturn(episodes, gamma),
			experiment.MeanReturn(episodes), agent.Policy().Epsilon())
		bar.Increment()
	}
	bar.Close()

	if err := saver.Checkpoint("final"); err != nil {
		log.Fatalf("could not save final checkpoint: %v", err)
	}
	if err := core.Save(); err != nil {
		log.Fatalf("could not save experiment data: %v", err)
	}

	data, err := tracker.LoadData("./data.bin")
	if err != nil {
		log.Fatalf("could not load experiment data: %v", err)
	}
	if len(data) > 10 {
		data = data[len(data)-10:]
	}
	log.Printf("last episodic returns: %v", data)
}
