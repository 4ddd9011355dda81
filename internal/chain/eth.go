package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/dfarena/indexer/internal/util"
	"github.com/dfarena/indexer/pkg/core"
)

// EthReader reads arena constants over JSON-RPC.
type EthReader struct {
	caller  bind.ContractCaller
	abi     abi.ABI
	timeout time.Duration
	closer  func()
}

var _ Reader = (*EthReader)(nil)

// Dial connects to an RPC endpoint.
func Dial(ctx context.Context, rpcURL string, timeout time.Duration) (*EthReader, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", rpcURL, err)
	}
	r, err := NewEthReader(client, timeout)
	if err != nil {
		client.Close()
		return nil, err
	}
	r.closer = client.Close
	return r, nil
}

// NewEthReader reads through any contract caller, such as an ethclient or a
// simulated backend.
func NewEthReader(caller bind.ContractCaller, timeout time.Duration) (*EthReader, error) {
	parsed, err := abi.JSON(strings.NewReader(arenaABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse arena ABI: %w", err)
	}
	return &EthReader{caller: caller, abi: parsed, timeout: timeout}, nil
}

// Close releases the RPC connection if Dial opened one.
func (r *EthReader) Close() {
	if r.closer != nil {
		r.closer()
	}
}

func (r *EthReader) call(ctx context.Context, match, method string, params ...any) ([]any, error) {
	if !common.IsHexAddress(match) {
		return nil, fmt.Errorf("invalid arena address %q", match)
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	contract := bind.NewBoundContract(common.HexToAddress(match), r.abi, r.caller, nil, nil)
	var out []any
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		if isRevert(err) {
			return nil, fmt.Errorf("%s on %s: %w: %v", method, match, ErrReverted, err)
		}
		return nil, fmt.Errorf("%s on %s: %w", method, match, err)
	}
	return out, nil
}

// isRevert separates contract-level failures from transport failures.
func isRevert(err error) bool {
	if errors.Is(err, bind.ErrNoCode) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "execution reverted") ||
		strings.Contains(msg, "attempting to unmarshall an empty string")
}

func (r *EthReader) ReadArenaConstants(ctx context.Context, match string) (ArenaConstants, error) {
	out, err := r.call(ctx, match, "getArenaConstants")
	if err != nil {
		return ArenaConstants{}, err
	}

	d := decoder{out: out}
	hash := d.bytes32()
	c := ArenaConstants{
		ConfigHash:                "0x" + common.Bytes2Hex(hash[:]),
		TeamsEnabled:              d.bool(),
		NumTeams:                  d.int(),
		Ranked:                    d.bool(),
		ConfirmStart:              d.bool(),
		TargetsRequiredForVictory: d.int(),
		BlockMoves:                d.bool(),
		BlockCapture:              d.bool(),
		ManualSpawn:               d.bool(),
		TargetPlanets:             d.bool(),
		WhitelistEnabled:          d.bool(),
		ClaimVictoryEnergyPercent: d.int(),
		StartTime:                 d.int(),
		EndTime:                   d.int(),
	}
	if d.err != nil {
		return ArenaConstants{}, fmt.Errorf("decoding getArenaConstants: %w", d.err)
	}
	return c, nil
}

func (r *EthReader) ReadGameConstants(ctx context.Context, match string) (GameConstants, error) {
	out, err := r.call(ctx, match, "getGameConstants")
	if err != nil {
		return GameConstants{}, err
	}

	d := decoder{out: out}
	g := GameConstants{
		AdminCanAddPlanets:     d.bool(),
		WorldRadiusLocked:      d.bool(),
		WorldRadiusMin:         d.int(),
		PlanetRarity:           d.int(),
		PlanetTransferEnabled:  d.bool(),
		LocationRevealCooldown: d.int(),
		SpaceJunkEnabled:       d.bool(),
		SpaceJunkLimit:         d.int(),
		TimeFactorHundredths:   d.int(),
		PerlinThreshold1:       d.int(),
		PerlinThreshold2:       d.int(),
		PerlinThreshold3:       d.int(),
		InitPerlinMin:          d.int(),
		InitPerlinMax:          d.int(),
		SpawnRimArea:           d.int(),
		BiomeThreshold1:        d.int(),
		BiomeThreshold2:        d.int(),
		PerlinMirrorX:          d.bool(),
		PerlinMirrorY:          d.bool(),
		PerlinLengthScale:      d.int(),
		PlanetLevelThresholds:  d.ints(),
	}
	mods := d.modifiers()
	g.Modifiers = core.Modifiers{
		PopulationCap:    mods[0],
		PopulationGrowth: mods[1],
		SilverCap:        mods[2],
		SilverGrowth:     mods[3],
		Range:            mods[4],
		Speed:            mods[5],
		Defense:          mods[6],
		BarbarianPercent: mods[7],
	}
	g.Spaceships = d.spaceships()
	g.CaptureZonesEnabled = d.bool()
	g.CaptureZoneChangeBlockInterval = d.int()
	g.CaptureZoneRadius = d.int()
	g.CaptureZoneHoldBlocksRequired = d.int()
	g.CaptureZonesPerFiveThousandArea = d.int()
	if d.err != nil {
		return GameConstants{}, fmt.Errorf("decoding getGameConstants: %w", d.err)
	}

	blocklist, err := r.readBlocklist(ctx, match)
	if err != nil {
		return GameConstants{}, err
	}
	g.Blocklist = blocklist
	return g, nil
}

func (r *EthReader) readBlocklist(ctx context.Context, match string) ([]BlockedMove, error) {
	out, err := r.call(ctx, match, "getBlocklist")
	if err != nil {
		return nil, err
	}
	d := decoder{out: out}
	sources := d.bigs()
	destinations := d.bigs()
	if d.err != nil {
		return nil, fmt.Errorf("decoding getBlocklist: %w", d.err)
	}
	if len(sources) != len(destinations) {
		return nil, fmt.Errorf("getBlocklist: %d sources but %d destinations", len(sources), len(destinations))
	}

	moves := make([]BlockedMove, 0, len(sources))
	for i := range sources {
		moves = append(moves, BlockedMove{
			Source:      fmt.Sprintf("%064x", sources[i]),
			Destination: fmt.Sprintf("%064x", destinations[i]),
		})
	}
	return moves, nil
}

func (r *EthReader) ReadPlanetData(ctx context.Context, match, location string) (core.PlanetAttrs, error) {
	loc, err := util.LocationToBig(location)
	if err != nil {
		return core.PlanetAttrs{}, err
	}

	out, err := r.call(ctx, match, "getPlanetData", loc)
	if err != nil {
		return core.PlanetAttrs{}, err
	}
	d := decoder{out: out}
	attrs := core.PlanetAttrs{
		Level:        d.int(),
		PlanetType:   int64(d.uint8()),
		SpaceType:    int64(d.uint8()),
		Perlin:       d.int(),
		SpawnPlanet:  d.bool(),
		TargetPlanet: d.bool(),
	}
	if d.err != nil {
		return core.PlanetAttrs{}, fmt.Errorf("decoding getPlanetData: %w", d.err)
	}

	out, err = r.call(ctx, match, "revealedCoords", loc)
	if err != nil {
		return core.PlanetAttrs{}, err
	}
	d = decoder{out: out}
	revealedID := d.big()
	x, y := d.int(), d.int()
	if d.err != nil {
		return core.PlanetAttrs{}, fmt.Errorf("decoding revealedCoords: %w", d.err)
	}
	if revealedID != nil && revealedID.Sign() != 0 {
		attrs.Coords = &core.Coords{X: x, Y: y}
	}
	return attrs, nil
}

// decoder walks positional ABI outputs and keeps the first type error.
type decoder struct {
	out []any
	pos int
	err error
}

func (d *decoder) next() any {
	if d.err != nil {
		return nil
	}
	if d.pos >= len(d.out) {
		d.err = fmt.Errorf("missing output %d", d.pos)
		return nil
	}
	v := d.out[d.pos]
	d.pos++
	return v
}

func (d *decoder) fail(v any, want string) {
	if d.err == nil {
		d.err = fmt.Errorf("output %d: got %T, want %s", d.pos-1, v, want)
	}
}

func (d *decoder) bool() bool {
	v := d.next()
	b, ok := v.(bool)
	if !ok && d.err == nil {
		d.fail(v, "bool")
	}
	return b
}

func (d *decoder) uint8() uint8 {
	v := d.next()
	n, ok := v.(uint8)
	if !ok && d.err == nil {
		d.fail(v, "uint8")
	}
	return n
}

func (d *decoder) big() *big.Int {
	v := d.next()
	n, ok := v.(*big.Int)
	if !ok && d.err == nil {
		d.fail(v, "*big.Int")
	}
	return n
}

func (d *decoder) int() int64 {
	n := d.big()
	if n == nil {
		return 0
	}
	if !n.IsInt64() {
		if d.err == nil {
			d.err = fmt.Errorf("output %d: %s overflows int64", d.pos-1, n)
		}
		return 0
	}
	return n.Int64()
}

func (d *decoder) bigs() []*big.Int {
	v := d.next()
	ns, ok := v.([]*big.Int)
	if !ok && d.err == nil {
		d.fail(v, "[]*big.Int")
	}
	return ns
}

func (d *decoder) ints() []int64 {
	ns := d.bigs()
	out := make([]int64, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Int64())
	}
	return out
}

func (d *decoder) modifiers() [8]int64 {
	var out [8]int64
	v := d.next()
	ns, ok := v.([8]*big.Int)
	if !ok {
		if d.err == nil {
			d.fail(v, "[8]*big.Int")
		}
		return out
	}
	for i, n := range ns {
		out[i] = n.Int64()
	}
	return out
}

func (d *decoder) spaceships() []bool {
	v := d.next()
	flags, ok := v.([5]bool)
	if !ok {
		if d.err == nil {
			d.fail(v, "[5]bool")
		}
		return nil
	}
	return flags[:]
}

func (d *decoder) bytes32() [32]byte {
	v := d.next()
	b, ok := v.([32]byte)
	if !ok && d.err == nil {
		d.fail(v, "[32]byte")
	}
	return b
}
