package chain

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

//go:embed chainspecs
var chainspecs embed.FS

func readChainSpec(filename string) *Config {
	f, err := chainspecs.Open(filename)
	if err != nil {
		panic(fmt.Sprintf("could not open chainspec %s: %v", filename, err))
	}
	defer f.Close()

	spec := &Config{}
	if err := json.NewDecoder(f).Decode(spec); err != nil {
		panic(fmt.Sprintf("could not parse chainspec %s: %v", filename, err))
	}
	if err := spec.Validate(); err != nil {
		panic(fmt.Sprintf("invalid chainspec %s: %v", filename, err))
	}
	return spec
}

var ErrInvalidForkOrder = errors.New("invalid fork activation order")

// Config is the rollup chain specification: the chain identity plus the
// activation table for protocol upgrades. Bedrock activates at a block
// number (it is the transition from the legacy system); every later
// upgrade activates at a block timestamp.
type Config struct {
	ChainName string   `json:"chainName"`
	ChainID   *big.Int `json:"chainId"`

	BedrockBlock *big.Int `json:"bedrockBlock,omitempty"`

	RegolithTime *big.Int `json:"regolithTime,omitempty"`
	CanyonTime   *big.Int `json:"canyonTime,omitempty"`
	DeltaTime    *big.Int `json:"deltaTime,omitempty"`
	EcotoneTime  *big.Int `json:"ecotoneTime,omitempty"`
	FjordTime    *big.Int `json:"fjordTime,omitempty"`
	GraniteTime  *big.Int `json:"graniteTime,omitempty"`
	HoloceneTime *big.Int `json:"holoceneTime,omitempty"`
	IsthmusTime  *big.Int `json:"isthmusTime,omitempty"`
}

func (c *Config) String() string {
	return fmt.Sprintf("{ChainID: %v, Bedrock: %v, Regolith: %v, Canyon: %v, Delta: %v, Ecotone: %v, Fjord: %v, Granite: %v, Holocene: %v, Isthmus: %v}",
		c.ChainID, c.BedrockBlock, c.RegolithTime, c.CanyonTime, c.DeltaTime, c.EcotoneTime, c.FjordTime, c.GraniteTime, c.HoloceneTime, c.IsthmusTime)
}

// isForked returns whether a timestamp-gated fork is active at the given time.
func isForked(t *big.Int, time uint64) bool {
	return t != nil && t.Uint64() <= time
}

func (c *Config) IsBedrock(num uint64) bool {
	return c.BedrockBlock != nil && c.BedrockBlock.Uint64() <= num
}

func (c *Config) IsRegolith(time uint64) bool { return isForked(c.RegolithTime, time) }
func (c *Config) IsCanyon(time uint64) bool   { return isForked(c.CanyonTime, time) }
func (c *Config) IsDelta(time uint64) bool    { return isForked(c.DeltaTime, time) }
func (c *Config) IsEcotone(time uint64) bool  { return isForked(c.EcotoneTime, time) }
func (c *Config) IsFjord(time uint64) bool    { return isForked(c.FjordTime, time) }
func (c *Config) IsGranite(time uint64) bool  { return isForked(c.GraniteTime, time) }
func (c *Config) IsHolocene(time uint64) bool { return isForked(c.HoloceneTime, time) }
func (c *Config) IsIsthmus(time uint64) bool  { return isForked(c.IsthmusTime, time) }

// ActiveSpec resolves the highest-ordered upgrade active for a block. The
// scan runs from the newest upgrade down, so the result is monotonically
// non-decreasing in block time for a valid config.
func (c *Config) ActiveSpec(num, time uint64) SpecId {
	switch {
	case c.IsIsthmus(time):
		return Isthmus
	case c.IsHolocene(time):
		return Holocene
	case c.IsGranite(time):
		return Granite
	case c.IsFjord(time):
		return Fjord
	case c.IsEcotone(time):
		return Ecotone
	case c.IsDelta(time):
		return Delta
	case c.IsCanyon(time):
		return Canyon
	case c.IsRegolith(time):
		return Regolith
	default:
		return Bedrock
	}
}

// Validate checks the activation table is well formed: Bedrock must be
// scheduled, no upgrade may be scheduled without its predecessor, and
// activation timestamps must be non-decreasing in upgrade order. A failure
// here is a configuration bug, never a per-block condition.
func (c *Config) Validate() error {
	if c.ChainID == nil {
		return fmt.Errorf("%w: missing chainId", ErrInvalidForkOrder)
	}
	if c.BedrockBlock == nil {
		return fmt.Errorf("%w: missing bedrock genesis upgrade", ErrInvalidForkOrder)
	}
	type fork struct {
		name string
		t    *big.Int
	}
	forks := []fork{
		{"regolithTime", c.RegolithTime},
		{"canyonTime", c.CanyonTime},
		{"deltaTime", c.DeltaTime},
		{"ecotoneTime", c.EcotoneTime},
		{"fjordTime", c.FjordTime},
		{"graniteTime", c.GraniteTime},
		{"holoceneTime", c.HoloceneTime},
		{"isthmusTime", c.IsthmusTime},
	}
	// An unscheduled upgrade anywhere before a scheduled one is a gap: the
	// later upgrade would activate without its predecessor's behavior.
	var prev fork
	var unscheduled string
	for _, f := range forks {
		if f.t == nil {
			if unscheduled == "" {
				unscheduled = f.name
			}
			continue
		}
		if unscheduled != "" {
			return fmt.Errorf("%w: %s scheduled at %v but %s is unscheduled",
				ErrInvalidForkOrder, f.name, f.t, unscheduled)
		}
		if prev.t != nil && prev.t.Cmp(f.t) > 0 {
			return fmt.Errorf("%w: %s at %v is before %s at %v",
				ErrInvalidForkOrder, f.name, f.t, prev.name, prev.t)
		}
		prev = f
	}
	return nil
}

// Rules is a one-block snapshot of every upgrade predicate. It is computed
// once per block and passed around by value so execution never re-resolves
// fork state mid-block.
type Rules struct {
	ChainID *big.Int
	Spec    SpecId

	IsBedrock, IsRegolith, IsCanyon, IsDelta bool
	IsEcotone, IsFjord, IsGranite            bool
	IsHolocene, IsIsthmus                    bool
}

func (c *Config) Rules(num, time uint64) *Rules {
	chainID := c.ChainID
	if chainID == nil {
		chainID = new(big.Int)
	}
	return &Rules{
		ChainID:    new(big.Int).Set(chainID),
		Spec:       c.ActiveSpec(num, time),
		IsBedrock:  c.IsBedrock(num),
		IsRegolith: c.IsRegolith(time),
		IsCanyon:   c.IsCanyon(time),
		IsDelta:    c.IsDelta(time),
		IsEcotone:  c.IsEcotone(time),
		IsFjord:    c.IsFjord(time),
		IsGranite:  c.IsGranite(time),
		IsHolocene: c.IsHolocene(time),
		IsIsthmus:  c.IsIsthmus(time),
	}
}

var (
	// OPMainnetChainConfig is the chain specification of OP Mainnet.
	OPMainnetChainConfig = readChainSpec("chainspecs/op-mainnet.json")

	// OPSepoliaChainConfig is the chain specification of the OP Sepolia test network.
	OPSepoliaChainConfig = readChainSpec("chainspecs/op-sepolia.json")

	// BaseMainnetChainConfig is the chain specification of Base Mainnet.
	BaseMainnetChainConfig = readChainSpec("chainspecs/base-mainnet.json")

	// TestConfig activates every upgrade at genesis.
	TestConfig = &Config{
		ChainName:    "test",
		ChainID:      big.NewInt(901),
		BedrockBlock: big.NewInt(0),
		RegolithTime: big.NewInt(0),
		CanyonTime:   big.NewInt(0),
		DeltaTime:    big.NewInt(0),
		EcotoneTime:  big.NewInt(0),
		FjordTime:    big.NewInt(0),
		GraniteTime:  big.NewInt(0),
		HoloceneTime: big.NewInt(0),
		IsthmusTime:  big.NewInt(0),
	}
)

func ConfigByChainName(name string) *Config {
	switch name {
	case OPMainnetChainConfig.ChainName:
		return OPMainnetChainConfig
	case OPSepoliaChainConfig.ChainName:
		return OPSepoliaChainConfig
	case BaseMainnetChainConfig.ChainName:
		return BaseMainnetChainConfig
	case TestConfig.ChainName:
		return TestConfig
	default:
		return nil
	}
}
