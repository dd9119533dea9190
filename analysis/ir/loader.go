// Copyright The bincheck Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ir

import (
	"encoding/json"
	"fmt"
	"os"
)

// The lifting frontend serializes the project as JSON with externally
// tagged unions, e.g. an expression is {"Var": {...}} or {"Const": {...}}.
// The decoder below maps that representation onto the Go term types.

type projectJSON struct {
	Program              termJSON[programJSON] `json:"program"`
	CPUArchitecture      string                `json:"cpu_architecture"`
	StackPointerRegister Variable              `json:"stack_pointer_register"`
	CallingConvention    CallingConvention     `json:"calling_convention"`
	Segments             []segmentJSON         `json:"segments"`
}

type segmentJSON struct {
	BaseAddress uint64 `json:"base_address"`
	Bytes       []byte `json:"bytes"`
	ReadOnly    bool   `json:"read_only"`
}

type termJSON[T any] struct {
	Tid  Tid `json:"tid"`
	Term T   `json:"term"`
}

type programJSON struct {
	Subs          []termJSON[subJSON] `json:"subs"`
	ExternSymbols []externSymbolJSON  `json:"extern_symbols"`
	EntryPoints   []Tid               `json:"entry_points"`
}

type subJSON struct {
	Name   string              `json:"name"`
	Blocks []termJSON[blkJSON] `json:"blocks"`
}

type externSymbolJSON struct {
	Tid      Tid    `json:"tid"`
	Name     string `json:"name"`
	NoReturn bool   `json:"no_return"`
}

type blkJSON struct {
	Defs []termJSON[defJSON] `json:"defs"`
	Jmps []termJSON[jmpJSON] `json:"jmps"`
}

type defJSON struct {
	Assign *struct {
		Var   Variable `json:"var"`
		Value exprJSON `json:"value"`
	} `json:"Assign"`
	Load *struct {
		Var     Variable `json:"var"`
		Address exprJSON `json:"address"`
	} `json:"Load"`
	Store *struct {
		Address exprJSON `json:"address"`
		Value   exprJSON `json:"value"`
	} `json:"Store"`
}

type jmpJSON struct {
	Branch *struct {
		Target Tid `json:"target"`
	} `json:"Branch"`
	CBranch *struct {
		Target    Tid      `json:"target"`
		Condition exprJSON `json:"condition"`
	} `json:"CBranch"`
	BranchInd *exprJSON `json:"BranchInd"`
	Call      *struct {
		Target   Tid  `json:"target"`
		ReturnTo *Tid `json:"return_"`
	} `json:"Call"`
	CallInd *struct {
		Target   exprJSON `json:"target"`
		ReturnTo *Tid     `json:"return_"`
	} `json:"CallInd"`
	CallOther *struct {
		Description string `json:"description"`
		ReturnTo    *Tid   `json:"return_"`
	} `json:"CallOther"`
	Return *exprJSON `json:"Return"`
}

type exprJSON struct {
	Var   *Variable `json:"Var"`
	Const *struct {
		Value uint64   `json:"value"`
		Size  ByteSize `json:"size"`
	} `json:"Const"`
	BinOp *struct {
		Op  string    `json:"op"`
		Lhs *exprJSON `json:"lhs"`
		Rhs *exprJSON `json:"rhs"`
	} `json:"BinOp"`
	UnOp *struct {
		Op  string    `json:"op"`
		Arg *exprJSON `json:"arg"`
	} `json:"UnOp"`
	Cast *struct {
		Op   string    `json:"op"`
		Size ByteSize  `json:"size"`
		Arg  *exprJSON `json:"arg"`
	} `json:"Cast"`
	Subpiece *struct {
		LowByte ByteSize  `json:"low_byte"`
		Size    ByteSize  `json:"size"`
		Arg     *exprJSON `json:"arg"`
	} `json:"Subpiece"`
	Unknown *struct {
		Description string   `json:"description"`
		Size        ByteSize `json:"size"`
	} `json:"Unknown"`
}

// LoadProject reads a lifted project from the JSON file at path and returns
// the project together with its runtime memory image.
func LoadProject(path string) (*Project, *RuntimeMemoryImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("could not read project file: %w", err)
	}
	return DecodeProject(data)
}

// DecodeProject decodes a JSON-serialized lifted project.
func DecodeProject(data []byte) (*Project, *RuntimeMemoryImage, error) {
	var raw projectJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("could not parse project file: %w", err)
	}

	program := Program{EntryPoints: raw.Program.Term.EntryPoints}
	for _, symb := range raw.Program.Term.ExternSymbols {
		program.ExternSymbols = append(program.ExternSymbols, ExternSymbol(symb))
	}
	for _, rawSub := range raw.Program.Term.Subs {
		sub := Sub{Name: rawSub.Term.Name}
		for _, rawBlk := range rawSub.Term.Blocks {
			blk, err := decodeBlk(rawBlk.Term)
			if err != nil {
				return nil, nil, fmt.Errorf("in block %s: %w", rawBlk.Tid, err)
			}
			sub.Blocks = append(sub.Blocks, Term[Blk]{Tid: rawBlk.Tid, Term: blk})
		}
		program.Subs = append(program.Subs, Term[Sub]{Tid: rawSub.Tid, Term: sub})
	}

	project := &Project{
		Program:              Term[Program]{Tid: raw.Program.Tid, Term: program},
		CPUArchitecture:      raw.CPUArchitecture,
		StackPointerRegister: raw.StackPointerRegister,
		CallingConvention:    raw.CallingConvention,
	}

	image := &RuntimeMemoryImage{}
	for _, seg := range raw.Segments {
		image.Segments = append(image.Segments, MemorySegment(seg))
	}
	return project, image, nil
}

func decodeBlk(raw blkJSON) (Blk, error) {
	var blk Blk
	for _, rawDef := range raw.Defs {
		def, err := decodeDef(rawDef.Term)
		if err != nil {
			return Blk{}, fmt.Errorf("in def %s: %w", rawDef.Tid, err)
		}
		blk.Defs = append(blk.Defs, Term[Def]{Tid: rawDef.Tid, Term: def})
	}
	for _, rawJmp := range raw.Jmps {
		jmp, err := decodeJmp(rawJmp.Term)
		if err != nil {
			return Blk{}, fmt.Errorf("in jmp %s: %w", rawJmp.Tid, err)
		}
		blk.Jmps = append(blk.Jmps, Term[Jmp]{Tid: rawJmp.Tid, Term: jmp})
	}
	return blk, nil
}

func decodeDef(raw defJSON) (Def, error) {
	switch {
	case raw.Assign != nil:
		value, err := decodeExpr(raw.Assign.Value)
		if err != nil {
			return nil, err
		}
		return Assign{Var: raw.Assign.Var, Value: value}, nil
	case raw.Load != nil:
		address, err := decodeExpr(raw.Load.Address)
		if err != nil {
			return nil, err
		}
		return Load{Var: raw.Load.Var, Address: address}, nil
	case raw.Store != nil:
		address, err := decodeExpr(raw.Store.Address)
		if err != nil {
			return nil, err
		}
		value, err := decodeExpr(raw.Store.Value)
		if err != nil {
			return nil, err
		}
		return Store{Address: address, Value: value}, nil
	default:
		return nil, fmt.Errorf("def has no recognized tag")
	}
}

func decodeJmp(raw jmpJSON) (Jmp, error) {
	switch {
	case raw.Branch != nil:
		return Branch{Target: raw.Branch.Target}, nil
	case raw.CBranch != nil:
		condition, err := decodeExpr(raw.CBranch.Condition)
		if err != nil {
			return nil, err
		}
		return CBranch{Target: raw.CBranch.Target, Condition: condition}, nil
	case raw.BranchInd != nil:
		target, err := decodeExpr(*raw.BranchInd)
		if err != nil {
			return nil, err
		}
		return BranchInd{Target: target}, nil
	case raw.Call != nil:
		return Call{Target: raw.Call.Target, ReturnTo: raw.Call.ReturnTo}, nil
	case raw.CallInd != nil:
		target, err := decodeExpr(raw.CallInd.Target)
		if err != nil {
			return nil, err
		}
		return CallInd{Target: target, ReturnTo: raw.CallInd.ReturnTo}, nil
	case raw.CallOther != nil:
		return CallOther{Description: raw.CallOther.Description, ReturnTo: raw.CallOther.ReturnTo}, nil
	case raw.Return != nil:
		value, err := decodeExpr(*raw.Return)
		if err != nil {
			return nil, err
		}
		return Return{Value: value}, nil
	default:
		return nil, fmt.Errorf("jmp has no recognized tag")
	}
}

func decodeExpr(raw exprJSON) (Expression, error) {
	switch {
	case raw.Var != nil:
		return Var{Var: *raw.Var}, nil
	case raw.Const != nil:
		return Const{Value: raw.Const.Value, Size: raw.Const.Size}, nil
	case raw.BinOp != nil:
		op, err := parseBinOp(raw.BinOp.Op)
		if err != nil {
			return nil, err
		}
		if raw.BinOp.Lhs == nil || raw.BinOp.Rhs == nil {
			return nil, fmt.Errorf("binary operator %s missing an operand", raw.BinOp.Op)
		}
		lhs, err := decodeExpr(*raw.BinOp.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := decodeExpr(*raw.BinOp.Rhs)
		if err != nil {
			return nil, err
		}
		return BinExpr{Op: op, Lhs: lhs, Rhs: rhs}, nil
	case raw.UnOp != nil:
		op, err := parseUnOp(raw.UnOp.Op)
		if err != nil {
			return nil, err
		}
		if raw.UnOp.Arg == nil {
			return nil, fmt.Errorf("unary operator %s missing its operand", raw.UnOp.Op)
		}
		arg, err := decodeExpr(*raw.UnOp.Arg)
		if err != nil {
			return nil, err
		}
		return UnExpr{Op: op, Arg: arg}, nil
	case raw.Cast != nil:
		op, err := parseCastOp(raw.Cast.Op)
		if err != nil {
			return nil, err
		}
		if raw.Cast.Arg == nil {
			return nil, fmt.Errorf("cast operator %s missing its operand", raw.Cast.Op)
		}
		arg, err := decodeExpr(*raw.Cast.Arg)
		if err != nil {
			return nil, err
		}
		return CastExpr{Op: op, Size: raw.Cast.Size, Arg: arg}, nil
	case raw.Subpiece != nil:
		if raw.Subpiece.Arg == nil {
			return nil, fmt.Errorf("subpiece missing its operand")
		}
		arg, err := decodeExpr(*raw.Subpiece.Arg)
		if err != nil {
			return nil, err
		}
		return SubPieceExpr{LowByte: raw.Subpiece.LowByte, Size: raw.Subpiece.Size, Arg: arg}, nil
	case raw.Unknown != nil:
		return UnknownExpr{Description: raw.Unknown.Description, Size: raw.Unknown.Size}, nil
	default:
		return nil, fmt.Errorf("expression has no recognized tag")
	}
}

func parseBinOp(name string) (BinOpType, error) {
	for op, opName := range binOpNames {
		if opName == name {
			return BinOpType(op), nil
		}
	}
	return 0, fmt.Errorf("unknown binary operator %q", name)
}

func parseUnOp(name string) (UnOpType, error) {
	for op, opName := range unOpNames {
		if opName == name {
			return UnOpType(op), nil
		}
	}
	return 0, fmt.Errorf("unknown unary operator %q", name)
}

func parseCastOp(name string) (CastOpType, error) {
	for op, opName := range castOpNames {
		if opName == name {
			return CastOpType(op), nil
		}
	}
	return 0, fmt.Errorf("unknown cast operator %q", name)
}
