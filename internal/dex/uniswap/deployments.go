package uniswap

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"dexflow/internal/dex"
)

// Deployment holds the factory and router addresses of a Uniswap
// deployment on one chain.
type Deployment struct {
	Factory common.Address
	Router  common.Address
}

var v2Deployments = map[string]Deployment{
	"ethereum": {
		Factory: common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f"),
		Router:  common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"),
	},
	"ethereum_sepolia": {
		Factory: common.HexToAddress("0xF62c03E08ada871A0bEb309762E260a7a6a880E6"),
		Router:  common.HexToAddress("0xeE567Fe1712Faf6149d80dA1E6934E354124CfE3"),
	},
	"base": {
		Factory: common.HexToAddress("0x8909Dc15e40173Ff4699343b6eB8132c65e18eC6"),
		Router:  common.HexToAddress("0x4752ba5DBc23f44D87826276BF6Fd6b1C372aD24"),
	},
	"base_sepolia": {
		Factory: common.HexToAddress("0x7Ae58f10f7849cA6F5fB71b7f45CB416c9204b1e"),
		Router:  common.HexToAddress("0x1689E7B1F10000AE47eBfE339a4f69dECd19F602"),
	},
}

var v3Deployments = map[string]Deployment{
	"ethereum": {
		Factory: common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984"),
		Router:  common.HexToAddress("0xE592427A0AEce92De3Edee1F18E0157C05861564"),
	},
	"ethereum_sepolia": {
		Factory: common.HexToAddress("0x0227628f3F023bb0B980b67D528571c95c6DaC1c"),
		Router:  common.HexToAddress("0x3bFA4769FB09eefC5a80d6E87c3B9C650f7Ae48E"),
	},
	"base": {
		Factory: common.HexToAddress("0x33128a8fC17869897dcE68Ed026d694621f6FDfD"),
		Router:  common.HexToAddress("0x2626664c2603336E57B271c5C0b26F421741e481"),
	},
	"base_sepolia": {
		Factory: common.HexToAddress("0x4752ba5DBc23f44D87826276BF6Fd6b1C372aD24"),
		Router:  common.HexToAddress("0x94cC0AaC535CCDB3C01d6787D6413C739ae12bc4"),
	},
}

func v2Deployment(chain string) (Deployment, error) {
	d, ok := v2Deployments[chain]
	if !ok {
		return Deployment{}, fmt.Errorf("%w: no uniswap v2 deployment on %q", dex.ErrUnsupportedChain, chain)
	}
	return d, nil
}

func v3Deployment(chain string) (Deployment, error) {
	d, ok := v3Deployments[chain]
	if !ok {
		return Deployment{}, fmt.Errorf("%w: no uniswap v3 deployment on %q", dex.ErrUnsupportedChain, chain)
	}
	return d, nil
}
