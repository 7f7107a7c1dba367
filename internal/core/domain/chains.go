package domain

type ChainID = string

// ChainType selects the adapter used to fetch transactions.
type ChainType string

const (
	ChainTypeArweave ChainType = "arweave"
	ChainTypeEVM     ChainType = "evm"
)

const (
	ChainIDArweave  ChainID = "arweave"
	ChainIDEthereum ChainID = "1"
	ChainIDPolygon  ChainID = "137"
)

// ChainIDToName maps ChainID to its human-readable name.
var ChainIDToName = map[ChainID]string{
	ChainIDArweave:  "ARWEAVE_MAINNET",
	ChainIDEthereum: "ETHEREUM_MAINNET",
	ChainIDPolygon:  "POLYGON_MAINNET",
}

// ChainName returns the display name for a chain, falling back to the ID.
func ChainName(id ChainID) string {
	if name, ok := ChainIDToName[id]; ok {
		return name
	}
	return id
}
