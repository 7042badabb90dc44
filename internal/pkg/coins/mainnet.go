package coins

import "github.com/archon-research/obrisk/internal/domain/entity"

// mainnetIdentities is the known mainnet coin set, keyed by canonical type
// tag. Short names match what the lending protocol's entry functions expect.
var mainnetIdentities = []entity.AssetIdentity{
	{TypeTag: "0x2::sui::SUI", ShortName: "sui", Display: "SUI"},
	{TypeTag: "0xdba34672e30cb065b1f93e3ab55318768fd6fef66c15942c9f7cb846e2f900e7::usdc::USDC", ShortName: "usdc", Display: "USDC"},
	{TypeTag: "0x5d4b302506645c37ff133b98c4b50a5ae14841659738d6d733d59d0d217a93bf::coin::COIN", ShortName: "wusdc", Display: "Wormhole USDC"},
	{TypeTag: "0xc060006111016b8a020ad5b33834984a437aaa7d3c74c18e09a95d48aceab08c::coin::COIN", ShortName: "wusdt", Display: "Wormhole USDT"},
	{TypeTag: "0xaf8cd5edc19c4512f4259f0bee101a40d41ebed738ade5874359610ef8eeced5::coin::COIN", ShortName: "weth", Display: "Wormhole ETH"},
	{TypeTag: "0x027792d9fed7f9844eb4839566001bb6f6cb4804f66aa2da6fe1ee242d896881::coin::COIN", ShortName: "wbtc", Display: "Wormhole BTC"},
	{TypeTag: "0x06864a6f921804860930db6ddbe2e16acdf8504495ea7481637a1c8b9a8fe54b::cetus::CETUS", ShortName: "cetus", Display: "CETUS"},
	{TypeTag: "0x7016aae72cfc67f2fadf55769c0a7dd54291a583b63051a5ed71081cce836ac6::sca::SCA", ShortName: "sca", Display: "SCA"},
	{TypeTag: "0xf325ce1300e8dac124071d3152c5c5ee6174914f8bc2161e88329cf579246efc::afsui::AFSUI", ShortName: "afsui", Display: "afSUI"},
	{TypeTag: "0xbde4ba4c2e274a60ce15c1cfff9e5c42e41654ac8b6d906a57efa4bd3c29f47d::hasui::HASUI", ShortName: "hasui", Display: "haSUI"},
	{TypeTag: "0x549e8b69270defbfafd4f94e17ec44cdbdd99820b33bda2278dea3b9a32d3f55::cert::CERT", ShortName: "vsui", Display: "vSUI"},
	{TypeTag: "0xdeeb7a4662eec9f2f3def03fb937a663dddaa2e215b8078a284d026b7946c270::deep::DEEP", ShortName: "deep", Display: "DEEP"},
}

// mainnetPrecisions maps short names to decimal precision.
var mainnetPrecisions = map[string]int{
	"sui":   9,
	"usdc":  6,
	"wusdc": 6,
	"usdt":  6,
	"wusdt": 6,
	"weth":  8,
	"wbtc":  8,
	"cetus": 9,
	"sca":   9,
	"afsui": 9,
	"hasui": 9,
	"vsui":  9,
	"deep":  6,
}

// DefaultRegistry returns a Registry loaded with the known mainnet coin set.
func DefaultRegistry() *Registry {
	return NewRegistry(mainnetIdentities, mainnetPrecisions)
}
