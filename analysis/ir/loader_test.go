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
	"testing"
)

const projectFixture = `{
  "program": {
    "tid": {"id": "program", "address": "UNKNOWN"},
    "term": {
      "subs": [
        {
          "tid": {"id": "sub_main", "address": "0x1000"},
          "term": {
            "name": "main",
            "blocks": [
              {
                "tid": {"id": "blk_0x1000", "address": "0x1000"},
                "term": {
                  "defs": [
                    {
                      "tid": {"id": "instr_0x1000_0", "address": "0x1000"},
                      "term": {
                        "Assign": {
                          "var": {"name": "RDI", "size": 8, "is_temp": false},
                          "value": {"Const": {"value": 8192, "size": 8}}
                        }
                      }
                    },
                    {
                      "tid": {"id": "instr_0x1008_0", "address": "0x1008"},
                      "term": {
                        "Store": {
                          "address": {
                            "BinOp": {
                              "op": "INT_ADD",
                              "lhs": {"Var": {"name": "RSP", "size": 8, "is_temp": false}},
                              "rhs": {"Const": {"value": 16, "size": 8}}
                            }
                          },
                          "value": {"Var": {"name": "RDI", "size": 8, "is_temp": false}}
                        }
                      }
                    }
                  ],
                  "jmps": [
                    {
                      "tid": {"id": "call_0x1010", "address": "0x1010"},
                      "term": {
                        "Call": {
                          "target": {"id": "extern_system", "address": "0x3000"},
                          "return_": {"id": "blk_0x1018", "address": "0x1018"}
                        }
                      }
                    }
                  ]
                }
              },
              {
                "tid": {"id": "blk_0x1018", "address": "0x1018"},
                "term": {
                  "defs": [],
                  "jmps": [
                    {
                      "tid": {"id": "ret_0x1020", "address": "0x1020"},
                      "term": {"Return": {"Var": {"name": "RAX", "size": 8, "is_temp": false}}}
                    }
                  ]
                }
              }
            ]
          }
        }
      ],
      "extern_symbols": [
        {"tid": {"id": "extern_system", "address": "0x3000"}, "name": "system", "no_return": false}
      ],
      "entry_points": [{"id": "sub_main", "address": "0x1000"}]
    }
  },
  "cpu_architecture": "x86_64",
  "stack_pointer_register": {"name": "RSP", "size": 8, "is_temp": false},
  "calling_convention": {
    "caller_saved_registers": [{"name": "RDI", "size": 8, "is_temp": false}],
    "return_register": {"name": "RAX", "size": 8, "is_temp": false}
  },
  "segments": [
    {"base_address": 8192, "bytes": "L2Jpbi9zaAA=", "read_only": true}
  ]
}`

func TestDecodeProject(t *testing.T) {
	project, image, err := DecodeProject([]byte(projectFixture))
	if err != nil {
		t.Fatalf("DecodeProject: %v", err)
	}

	if project.CPUArchitecture != "x86_64" {
		t.Errorf("CPUArchitecture = %q", project.CPUArchitecture)
	}
	if project.StackPointerRegister.Name != "RSP" {
		t.Errorf("StackPointerRegister = %v", project.StackPointerRegister)
	}
	if got := project.CallingConvention.ReturnRegister.Name; got != "RAX" {
		t.Errorf("ReturnRegister = %q", got)
	}

	program := &project.Program.Term
	if len(program.Subs) != 1 || program.Subs[0].Term.Name != "main" {
		t.Fatalf("unexpected subs: %v", program.Subs)
	}
	if len(program.EntryPoints) != 1 || program.EntryPoints[0].ID != "sub_main" {
		t.Errorf("entry points = %v", program.EntryPoints)
	}
	if !program.IsExtern(Tid{ID: "extern_system", Address: "0x3000"}) {
		t.Error("extern_system should be an extern symbol")
	}

	blocks := program.Subs[0].Term.Blocks
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}

	defs := blocks[0].Term.Defs
	if len(defs) != 2 {
		t.Fatalf("got %d defs, want 2", len(defs))
	}
	assign, ok := defs[0].Term.(Assign)
	if !ok {
		t.Fatalf("defs[0] is %T, want Assign", defs[0].Term)
	}
	if c, ok := assign.Value.(Const); !ok || c.Value != 8192 || c.Size != 8 {
		t.Errorf("assign value = %v", assign.Value)
	}
	store, ok := defs[1].Term.(Store)
	if !ok {
		t.Fatalf("defs[1] is %T, want Store", defs[1].Term)
	}
	address, ok := store.Address.(BinExpr)
	if !ok || address.Op != IntAdd {
		t.Fatalf("store address = %v", store.Address)
	}
	if _, ok := address.Lhs.(Var); !ok {
		t.Errorf("store address lhs = %v", address.Lhs)
	}

	call, ok := blocks[0].Term.Jmps[0].Term.(Call)
	if !ok {
		t.Fatalf("jmp is %T, want Call", blocks[0].Term.Jmps[0].Term)
	}
	if call.Target.ID != "extern_system" || call.ReturnTo == nil || call.ReturnTo.ID != "blk_0x1018" {
		t.Errorf("call = %+v", call)
	}
	if _, ok := blocks[1].Term.Jmps[0].Term.(Return); !ok {
		t.Errorf("second block should end in a Return")
	}

	if len(image.Segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(image.Segments))
	}
	if s, ok := image.ReadString(8192); !ok || s != "/bin/sh" {
		t.Errorf("ReadString(8192) = %q, %v", s, ok)
	}
}

// assignProject wraps an expression payload into a one-def project so
// decode error paths can be exercised in isolation.
func assignProject(value string) string {
	return `{"program":{"tid":{"id":"p"},"term":{"subs":[{"tid":{"id":"s"},"term":{"name":"s","blocks":[{"tid":{"id":"b"},"term":{"defs":[{"tid":{"id":"d"},"term":{"Assign":{"var":{"name":"RAX","size":8},"value":` + value + `}}}],"jmps":[]}}]}}]}}}`
}

func TestDecodeProjectRejectsMissingOperands(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"binop without operands", `{"BinOp":{"op":"INT_ADD"}}`},
		{"binop without rhs", `{"BinOp":{"op":"INT_ADD","lhs":{"Const":{"value":0,"size":8}}}}`},
		{"unop without arg", `{"UnOp":{"op":"BOOL_NEGATE"}}`},
		{"cast without arg", `{"Cast":{"op":"INT_ZEXT","size":8}}`},
		{"subpiece without arg", `{"Subpiece":{"low_byte":0,"size":4}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeProject([]byte(assignProject(tt.value)))
			if err == nil {
				t.Error("expected a decode error for the missing operand")
			}
		})
	}
}

func TestDecodeProjectRejectsUnknownTags(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty def tag", `{"program":{"tid":{"id":"p"},"term":{"subs":[{"tid":{"id":"s"},"term":{"name":"s","blocks":[{"tid":{"id":"b"},"term":{"defs":[{"tid":{"id":"d"},"term":{}}],"jmps":[]}}]}}]}}}`},
		{"unknown operator", `{"program":{"tid":{"id":"p"},"term":{"subs":[{"tid":{"id":"s"},"term":{"name":"s","blocks":[{"tid":{"id":"b"},"term":{"defs":[{"tid":{"id":"d"},"term":{"Assign":{"var":{"name":"RAX","size":8},"value":{"BinOp":{"op":"INT_BOGUS","lhs":{"Const":{"value":0,"size":8}},"rhs":{"Const":{"value":0,"size":8}}}}}}}],"jmps":[]}}]}}]}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeProject([]byte(tt.data)); err == nil {
				t.Error("expected a decode error")
			}
		})
	}
}
