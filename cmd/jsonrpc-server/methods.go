package main

import (
	"context"
	"math"

	"github.com/shaharia-lab/jsonrpc"
)

type operands struct {
	A int64
	B int64
}

type namedOperands struct {
	LHS int64 `json:"lhs"`
	RHS int64 `json:"rhs"`
}

type echoArgs struct {
	Msg string `json:"msg"`
}

type todoItem struct {
	ID     uint32 `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

const echoObjSchema = `{
	"type": "object",
	"properties": {"msg": {"type": "string"}},
	"required": ["msg"]
}`

type arithmetic func(lhs, rhs int64) (int64, error)

func checkedAdd(lhs, rhs int64) (int64, error) {
	if (rhs > 0 && lhs > math.MaxInt64-rhs) || (rhs < 0 && lhs < math.MinInt64-rhs) {
		return 0, jsonrpc.NewCustomError("add overflow")
	}
	return lhs + rhs, nil
}

func checkedSubtract(lhs, rhs int64) (int64, error) {
	if (rhs < 0 && lhs > math.MaxInt64+rhs) || (rhs > 0 && lhs < math.MinInt64+rhs) {
		return 0, jsonrpc.NewCustomError("subtract overflow")
	}
	return lhs - rhs, nil
}

func checkedMultiply(lhs, rhs int64) (int64, error) {
	if lhs == 0 || rhs == 0 {
		return 0, nil
	}
	product := lhs * rhs
	if product/rhs != lhs || (lhs == -1 && rhs == math.MinInt64) || (rhs == -1 && lhs == math.MinInt64) {
		return 0, jsonrpc.NewCustomError("multiply overflow")
	}
	return product, nil
}

func checkedDivide(lhs, rhs int64) (int64, error) {
	if rhs == 0 {
		return 0, jsonrpc.NewCustomError("divided by zero")
	}
	if lhs == math.MinInt64 && rhs == -1 {
		return 0, jsonrpc.NewCustomError("divide overflow")
	}
	return lhs / rhs, nil
}

func arrayArithmetic(logger jsonrpc.Logger, name string, op arithmetic) jsonrpc.Registration {
	return jsonrpc.NewArrayMethod(jsonrpc.V1, name, func(ctx context.Context, p operands) (int64, error) {
		logger.WithContext(ctx).Debug("got client request to ", name, ": ", p.A, ", ", p.B)
		return op(p.A, p.B)
	})
}

func objectArithmetic(logger jsonrpc.Logger, name string, op arithmetic) jsonrpc.Registration {
	return jsonrpc.NewObjectMethod(jsonrpc.V1, name, func(ctx context.Context, p namedOperands) (int64, error) {
		logger.WithContext(ctx).Debug("got client request to ", name, ": ", p.LHS, ", ", p.RHS)
		return op(p.LHS, p.RHS)
	})
}

// registrations lists every method exposed by the server, each wrapped in a tracing span.
func registrations(logger jsonrpc.Logger) []jsonrpc.Registration {
	regs := []jsonrpc.Registration{
		jsonrpc.NewArrayMethod(jsonrpc.V2, "ping", func(ctx context.Context, _ jsonrpc.NoParams) (string, error) {
			logger.WithContext(ctx).Debug("got client ping request")
			return "pong", nil
		}),
		jsonrpc.NewArrayMethod(jsonrpc.V2, "echoArray", func(ctx context.Context, p echoArgs) (string, error) {
			logger.WithContext(ctx).Debug("got client request message: ", p.Msg)
			return p.Msg, nil
		}),
		jsonrpc.NewObjectMethod(jsonrpc.V2, "echoObj", func(ctx context.Context, p echoArgs) (echoArgs, error) {
			logger.WithContext(ctx).Debug("got client request message: ", p.Msg)
			return p, nil
		}, jsonrpc.UseParamsSchema(echoObjSchema)),
		jsonrpc.NewObjectMethod(jsonrpc.V2, "todoList", func(ctx context.Context, _ jsonrpc.NoParams) ([]todoItem, error) {
			logger.WithContext(ctx).Debug("got client todoList request")
			return []todoItem{
				{ID: 1, Title: "Learning Go", Status: "pending"},
				{ID: 2, Title: "Meeting with devs team", Status: "completed"},
			}, nil
		}),
		arrayArithmetic(logger, "addArray", checkedAdd),
		objectArithmetic(logger, "addObj", checkedAdd),
		arrayArithmetic(logger, "subtractArray", checkedSubtract),
		objectArithmetic(logger, "subtractObj", checkedSubtract),
		arrayArithmetic(logger, "multiplyArray", checkedMultiply),
		objectArithmetic(logger, "multiplyObj", checkedMultiply),
		arrayArithmetic(logger, "divideArray", checkedDivide),
		objectArithmetic(logger, "divideObj", checkedDivide),
	}

	for i := range regs {
		regs[i] = jsonrpc.Traced(regs[i])
	}
	return regs
}
