package contract

// BuiltinVesting is the token vesting contract.
//
// Function selectors:
//
//	addBeneficiary(address,uint256,uint256,uint256,uint256) → 0x55119b1a
//	releaseVestedTokens(address)                            → 0xce699a41
//	getVestingSchedule(address)                             → 0x9f829063
const BuiltinVesting = "vesting"

// VestingAddress is the vesting contract deployed on holesky.
const VestingAddress = "0x4a7A199EA12F7d963E5142B60B6BDE20D14130CC"

var vestingFragments = []string{
	"function addBeneficiary(address _beneficiary, uint256 _totalAmount, uint256 _startTime, uint256 _cliffDuration, uint256 _vestingDuration) external",
	"function releaseVestedTokens(address _beneficiary) external",
	"function getVestingSchedule(address _beneficiary) external view returns (tuple(uint256 totalAmount, uint256 releasedAmount, uint256 startTime, uint256 cliffDuration, uint256 vestingDuration))",
}

func init() {
	RegisterBuiltin(BuiltinKind{
		ID:          BuiltinVesting,
		Name:        "Token Vesting",
		Description: "Beneficiary schedules with cliff and linear vesting.",
		ABI:         MustParseFragments(vestingFragments...),
	})
}
