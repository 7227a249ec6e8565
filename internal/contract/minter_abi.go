package contract

// BuiltinMinter is the owner-managed token minter contract.
//
// Function selectors:
//
//	setTokenName(string)            → 0xa4f29aad
//	setTokenSymbol(string)          → 0xba51b1b4
//	getTokenInfo()                  → 0xabb1dc44
//	mintTokens(address,uint256)     → 0xf0dda65c
//	withdrawTokens(address,uint256) → 0x06b091f9
//	name()                          → 0x06fdde03
//	symbol()                        → 0x95d89b41
const BuiltinMinter = "minter"

// MinterAddress is the minter contract deployed on holesky.
const MinterAddress = "0xBc7e97Ceacb88480b740c80566501F53796c81a5"

var minterFragments = []string{
	"function setTokenName(string memory newName) external",
	"function setTokenSymbol(string memory newSymbol) external",
	"function getTokenInfo() external view returns (string memory tokenName, string memory tokenSymbol)",
	"function mintTokens(address to, uint256 amount) external",
	"function withdrawTokens(address to, uint256 amount) external",
	"function name() public view returns (string memory)",
	"function symbol() public view returns (string memory)",
}

func init() {
	RegisterBuiltin(BuiltinKind{
		ID:          BuiltinMinter,
		Name:        "Token Minter",
		Description: "Owner-only mint, withdraw and token renaming.",
		ABI:         MustParseFragments(minterFragments...),
	})
}
