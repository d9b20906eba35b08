package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	CampaignCreatedEventName  = "CampaignInfoFactoryCampaignCreated"
	TreasuryDeployedEventName = "TreasuryFactoryTreasuryDeployed"
)

const campaignInfoFactoryJSON = `[
  {
    "type": "event",
    "name": "CampaignInfoFactoryCampaignCreated",
    "anonymous": false,
    "inputs": [
      {"name": "identifierHash", "type": "bytes32", "indexed": true},
      {"name": "campaignInfoAddress", "type": "address", "indexed": true},
      {"name": "owner", "type": "address", "indexed": false},
      {"name": "launchTime", "type": "uint256", "indexed": false},
      {"name": "deadline", "type": "uint256", "indexed": false},
      {"name": "goalAmount", "type": "uint256", "indexed": false}
    ]
  },
  {
    "type": "function",
    "name": "createCampaign",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "creator", "type": "address"},
      {"name": "identifierHash", "type": "bytes32"},
      {"name": "selectedPlatformHash", "type": "bytes32[]"},
      {"name": "platformDataKey", "type": "bytes32[]"},
      {"name": "platformDataValue", "type": "bytes32[]"},
      {"name": "campaignData", "type": "tuple", "components": [
        {"name": "launchTime", "type": "uint256"},
        {"name": "deadline", "type": "uint256"},
        {"name": "goalAmount", "type": "uint256"}
      ]}
    ],
    "outputs": []
  }
]`

const globalParamsJSON = `[
  {
    "type": "function",
    "name": "getPlatformAdminAddress",
    "stateMutability": "view",
    "inputs": [{"name": "platformHash", "type": "bytes32"}],
    "outputs": [{"name": "account", "type": "address"}]
  }
]`

const treasuryFactoryJSON = `[
  {
    "type": "function",
    "name": "deploy",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "platformHash", "type": "bytes32"},
      {"name": "bytecodeIndex", "type": "uint256"},
      {"name": "infoAddress", "type": "address"}
    ],
    "outputs": [{"name": "clone", "type": "address"}]
  },
  {
    "type": "event",
    "name": "TreasuryFactoryTreasuryDeployed",
    "anonymous": false,
    "inputs": [
      {"name": "platformHash", "type": "bytes32", "indexed": true},
      {"name": "bytecodeIndex", "type": "uint256", "indexed": true},
      {"name": "campaignInfo", "type": "address", "indexed": true},
      {"name": "treasuryAddress", "type": "address", "indexed": false}
    ]
  }
]`

var (
	CampaignInfoFactoryABI = mustParseABI(campaignInfoFactoryJSON)
	GlobalParamsABI        = mustParseABI(globalParamsJSON)
	TreasuryFactoryABI     = mustParseABI(treasuryFactoryJSON)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic("chain: invalid ABI: " + err.Error())
	}
	return parsed
}
