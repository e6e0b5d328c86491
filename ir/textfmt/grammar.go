package textfmt

// Program is the AST root: a sequence of function definitions, in the
// same flat "list of top-level items" shape as grammar.Program.
type Program struct {
	Functions []*Function `@@*`
}

// Function is one verification unit, textually:
//
//	fn name {
//	  bb entry:
//	    ...instructions...
//	    ...terminator...
//	  bb ...
//	}
type Function struct {
	Name   string   `"fn" @Ident "{"`
	Blocks []*Block `@@*`
	Close  string   `"}"`
}

// Block is one basic block: a label, zero or more phi declarations
// (which must precede straight-line instructions, mirroring the IR
// contract's own Phis/Instructions split), zero or more straight-line
// instructions, and exactly one terminator.
type Block struct {
	Label  string       `"bb" @Ident ":"`
	Phis   []*PhiDecl   `@@*`
	Instrs []*InstrLine `@@*`
	Term   *TermLine    `@@`
}

// TypeRef names a type by its textual spelling: "bool", "int", an
// "i<width>" bit-vector, or one of "f16"/"f32"/"f64"/"f128". Resolve
// parses the spelling into a term.Type.
type TypeRef struct {
	Name string `@Ident`
}

// PhiDecl is a join: %result = phi <type> [pred: %value], ...
type PhiDecl struct {
	Result string     `@Register "=" "phi"`
	Type   *TypeRef   `@@`
	Arms   []*PhiArm  `@@ { "," @@ }`
}

// PhiArm is one incoming edge of a PhiDecl: [predLabel: %value].
type PhiArm struct {
	Block string `"[" @Ident ":"`
	Value string `@Register "]"`
}

// InstrLine is one straight-line instruction: either a call (with an
// optional typed result) or a register assignment.
type InstrLine struct {
	Call   *CallInstr   `  @@`
	Assign *AssignInstr ` | @@`
}

// CallInstr is `[%result : type =] call name(%arg, ...)`. A call with
// no result produces no binding — the encoder treats it as a void
// instruction, exactly like the error_code sentinel.
type CallInstr struct {
	Result     *string  `[ @Register ":"`
	ResultType *TypeRef `  @@ "=" ]`
	Name       string   `"call" @Ident "("`
	Args       []string `[ @Register { "," @Register } ] ")"`
}

// AssignInstr is `%result = <rhs>`, where <rhs> is one of the five
// straight-line instruction shapes the lowering layer knows about.
type AssignInstr struct {
	Result string     `@Register "="`
	Const  *ConstRHS  `(  @@`
	Cast   *CastRHS   ` | @@`
	Not    *NotRHS    ` | @@`
	Undef  *UndefRHS  ` | @@`
	Binary *BinaryRHS ` | @@ )`
}

// ConstRHS is `const <type> <literal>`, the literal being one of a
// bool keyword, an integer, or a float — exactly one of Bool, Number,
// FloatVal is set, selected by which alternative matched, interpreted
// against Type by the converter.
type ConstRHS struct {
	Type     *TypeRef `"const" @@`
	Bool     *string  `(  @("true" | "false")`
	Number   *string  ` | @Integer`
	FloatVal *string  ` | @Float )`
}

// CastRHS is `<op> %operand to <type>`, op one of the four width/
// format conversions §4.E lists as unary expression kinds.
type CastRHS struct {
	Op      string   `@("zext" | "sext" | "trunc" | "fcast")`
	Operand string   `@Register "to"`
	Type    *TypeRef `@@`
}

// NotRHS is `not %operand`, boolean negation.
type NotRHS struct {
	Operand string `"not" @Register`
}

// UndefRHS is `undef <type>` — a value the model is free to choose.
type UndefRHS struct {
	Type *TypeRef `"undef" @@`
}

// BinaryRHS is `<op> <type> %left %right`, op one of the arithmetic/
// logical/comparison mnemonics listed in binOpTable (convert.go).
type BinaryRHS struct {
	Op    string   `@Ident`
	Type  *TypeRef `@@`
	Left  string   `@Register`
	Right string   `@Register`
}

// TermLine is a basic block's single terminator: a conditional
// branch, an unconditional jump, or a return.
type TermLine struct {
	Br  *BrTerm  `  @@`
	Jmp *JmpTerm ` | @@`
	Ret *RetTerm ` | @@`
}

// BrTerm is `br %cond trueLabel falseLabel`.
type BrTerm struct {
	Cond  string `"br" @Register`
	True  string `@Ident`
	False string `@Ident`
}

// JmpTerm is `jmp label`.
type JmpTerm struct {
	Target string `"jmp" @Ident`
}

// RetTerm is `ret [%value]`.
type RetTerm struct {
	Value *string `"ret" [ @Register ]`
}
