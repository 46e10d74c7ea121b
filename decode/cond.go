package decode

// evalCond reports whether a branch condition holds against the current
// flags, per spec.md §4.4's conditional-branch table (JRC/JRNC, JREQ/
// JRNE, JRH/JRNH, JRM/JRNM, JRMI/JRPL, JRUGT/JRULE, plus the always-taken
// alias JRA/JRT and JRF's never-taken form).
func (ex *Executor) evalCond(c Cond) bool {
	cc := ex.Cpu
	switch c {
	case CondAlways:
		return true
	case CondNever:
		return false
	case CondC:
		return cc.C()
	case CondNC:
		return !cc.C()
	case CondEQ:
		return cc.Z()
	case CondNE:
		return !cc.Z()
	case CondH:
		return cc.H()
	case CondNH:
		return !cc.H()
	case CondM:
		return cc.I0() || cc.I1()
	case CondNM:
		return !(cc.I0() || cc.I1())
	case CondMI:
		return cc.N()
	case CondPL:
		return !cc.N()
	case CondUGT:
		return !cc.C() && !cc.Z()
	case CondULE:
		return cc.C() || cc.Z()
	default:
		return false
	}
}
